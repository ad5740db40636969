package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"formchat-be/internal/dto"
	"formchat-be/internal/entity"
	"formchat-be/internal/model"
	"formchat-be/internal/pkg/logger"
	"formchat-be/internal/repository/specification"
	"formchat-be/internal/repository/unitofwork"
	"formchat-be/internal/service"
	"formchat-be/pkg/database"
	"formchat-be/pkg/forms"
	"formchat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error)
	require.NoError(t, db.AutoMigrate(
		&model.FormTemplate{},
		&model.FormResponse{},
		&model.ConversationSession{},
		&model.ConversationLog{},
	))
	return db
}

func TestFormLifecycle(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	catalog := service.NewFormCatalog(uowFactory)
	templates := forms.NewCachedProvider(catalog, time.Minute)
	formService := service.NewFormService(uowFactory, templates, catalog, nil, logger.NewNopLogger())

	owner := uuid.New()
	respondent := uuid.New()

	created, err := formService.CreateTemplate(ctx, owner, &dto.CreateFormTemplateRequest{
		Title:    "Integration Leave Request " + owner.String()[:8],
		Keywords: []string{"leave"},
		Fields: []dto.FormFieldRequest{
			{FieldId: "start", Label: "Start date", Type: "date", Required: true},
		},
	})
	require.NoError(t, err)

	t.Run("owner sees the template, others do not", func(t *testing.T) {
		mine, err := catalog.ListTemplates(ctx, forms.Filter{UserID: owner.String()})
		require.NoError(t, err)
		assert.True(t, containsTemplate(mine, created.Id.String()))

		theirs, err := catalog.ListTemplates(ctx, forms.Filter{UserID: respondent.String()})
		require.NoError(t, err)
		assert.False(t, containsTemplate(theirs, created.Id.String()))
	})

	responseID := uuid.New()
	require.NoError(t, catalog.SaveResponse(ctx, &forms.FormResponse{
		ID:           responseID.String(),
		FormID:       created.Id.String(),
		RespondentID: respondent.String(),
		SessionID:    "it-" + responseID.String(),
		Responses:    map[string]string{"start": "2025-06-01"},
		Status:       forms.StatusComplete,
		CreatedAt:    time.Now(),
	}))

	t.Run("review workflow", func(t *testing.T) {
		require.NoError(t, formService.MarkPendingReview(ctx, responseID))

		res, err := formService.UpdateResponseStatus(ctx, owner, &dto.UpdateResponseStatusRequest{
			Id: responseID, Status: "approved",
		})
		require.NoError(t, err)
		assert.Equal(t, "approved", res.Status)

		list, err := catalog.ListResponses(ctx, forms.ResponseFilter{RespondentID: respondent.String()})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, forms.StatusApproved, list[0].Status)
	})
}

func TestConversationPersistence(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	user := uuid.New()
	sessionID := "it-" + uuid.NewString()

	snapshot := &store.Session{ID: sessionID, UserID: user.String(), Stage: store.StageSubmitted}
	archived := &entity.ConversationSession{
		Id: sessionID, UserId: user, Stage: snapshot.Stage, Snapshot: snapshot, ArchivedAt: time.Now(),
	}
	require.NoError(t, uow.ConversationSessionRepository().Upsert(ctx, archived))
	require.NoError(t, uow.ConversationSessionRepository().Upsert(ctx, archived))

	got, err := uow.ConversationSessionRepository().FindOne(ctx, specification.BySessionPK{SessionID: sessionID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, store.StageSubmitted, got.Snapshot.Stage)

	for _, msg := range []string{"first", "second"} {
		require.NoError(t, uow.ConversationLogRepository().Create(ctx, &entity.ConversationLog{
			SessionId: sessionID, UserId: user, UserMessage: msg, StageFrom: store.StageIdle, StageTo: store.StageSearching,
		}))
	}
	logs, err := uow.ConversationLogRepository().FindAll(ctx, specification.BySessionKey{SessionID: sessionID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].UserMessage)
}

func containsTemplate(list []forms.FormTemplate, id string) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}
