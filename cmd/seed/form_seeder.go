package main

import (
	"log"
	"time"

	"formchat-be/internal/entity"
	"formchat-be/internal/mapper"
	"formchat-be/internal/model"
	"formchat-be/pkg/forms"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sharedTemplates are visible to every user (no creator)
func sharedTemplates() []entity.FormTemplate {
	return []entity.FormTemplate{
		{
			Title:       "Incident Report",
			Description: "Report a workplace incident, injury or near miss",
			Keywords:    []string{"incident", "accident", "injury", "hazard", "report"},
			Fields: []forms.Field{
				{ID: "name", Label: "Your name", Type: forms.FieldText, Required: true},
				{ID: "email", Label: "Email", Type: forms.FieldEmail, Required: true},
				{ID: "date", Label: "Date of incident", Type: forms.FieldDate, Required: true},
				{ID: "location", Label: "Location", Type: forms.FieldText, Required: true},
				{ID: "severity", Label: "Severity", Type: forms.FieldSelect, Required: true, Options: []string{"low", "medium", "high"}},
				{ID: "description", Label: "What happened", Type: forms.FieldTextarea, Required: true, MinLength: 10},
			},
		},
		{
			Title:       "Leave Request",
			Description: "Request vacation, sick or personal leave",
			Keywords:    []string{"leave", "vacation", "holiday", "time off", "sick"},
			Fields: []forms.Field{
				{ID: "name", Label: "Your name", Type: forms.FieldText, Required: true},
				{ID: "leave_type", Label: "Leave type", Type: forms.FieldSelect, Required: true, Options: []string{"vacation", "sick", "personal"}},
				{ID: "start_date", Label: "Start date", Type: forms.FieldDate, Required: true},
				{ID: "end_date", Label: "End date", Type: forms.FieldDate, Required: true},
				{ID: "notes", Label: "Notes", Type: forms.FieldTextarea},
			},
		},
		{
			Title:       "Expense Reimbursement",
			Description: "Claim back money spent on behalf of the company",
			Keywords:    []string{"expense", "reimbursement", "receipt", "refund", "claim"},
			Fields: []forms.Field{
				{ID: "name", Label: "Your name", Type: forms.FieldText, Required: true},
				{ID: "amount", Label: "Amount", Type: forms.FieldCurrency, Required: true},
				{ID: "category", Label: "Category", Type: forms.FieldSelect, Required: true, Options: []string{"travel", "meals", "equipment", "other"}},
				{ID: "date", Label: "Date of expense", Type: forms.FieldDate, Required: true},
				{ID: "receipt_url", Label: "Receipt link", Type: forms.FieldURL},
			},
		},
		{
			Title:       "IT Support Ticket",
			Description: "Get help with hardware, software or account access",
			Keywords:    []string{"it", "support", "laptop", "password", "access", "bug"},
			Fields: []forms.Field{
				{ID: "name", Label: "Your name", Type: forms.FieldText, Required: true},
				{ID: "phone", Label: "Phone", Type: forms.FieldPhone},
				{ID: "urgent", Label: "Is it blocking your work", Type: forms.FieldBoolean, Required: true},
				{ID: "problem", Label: "Describe the problem", Type: forms.FieldTextarea, Required: true},
			},
		},
	}
}

// SeedFormTemplates inserts the shared templates whose titles are not taken yet
func SeedFormTemplates(db *gorm.DB) {
	m := mapper.NewFormMapper()

	for _, t := range sharedTemplates() {
		var count int64
		if err := db.Model(&model.FormTemplate{}).
			Where("title = ? AND created_by IS NULL", t.Title).
			Count(&count).Error; err != nil {
			log.Fatalf("Error: Failed to check template %q: %v", t.Title, err)
		}
		if count > 0 {
			log.Printf("Skip: %s already exists", t.Title)
			continue
		}

		t.Id = uuid.New()
		t.Status = forms.TemplateActive
		t.CreatedAt = time.Now()
		row, err := m.TemplateToModel(&t)
		if err != nil {
			log.Fatalf("Error: Failed to encode template %q: %v", t.Title, err)
		}
		if err := db.Create(row).Error; err != nil {
			log.Fatalf("Error: Failed to seed template %q: %v", t.Title, err)
		}
		log.Printf("Seeded: %s", t.Title)
	}
}
