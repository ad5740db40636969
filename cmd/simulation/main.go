package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Drives a running server through a scripted conversation and prints each
// turn with its stage transition. Handy for checking prompts end to end.

type sendMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type sendMessageResponse struct {
	Message string `json:"message"`
	Data    struct {
		ResponseText string `json:"response_text"`
		Intent       string `json:"intent"`
		StageFrom    string `json:"stage_from"`
		StageTo      string `json:"stage_to"`
		Retryable    bool   `json:"retryable"`
		Decisions    []struct {
			Node        string  `json:"node"`
			Result      string  `json:"result"`
			Confidence  float64 `json:"confidence"`
			Explanation string  `json:"explanation"`
		} `json:"decisions"`
	} `json:"data"`
}

var defaultScript = []string{
	"I need to report an incident at work",
	"My name is Ana Souza, ana@example.com",
	"It happened yesterday in the loading dock",
	"high",
	"A pallet fell from the top shelf and nearly hit a colleague",
	"yes",
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000/api/conversation/v1", "conversation API base URL")
	userID := flag.String("user", uuid.NewString(), "user id to sign the token for")
	explain := flag.Bool("explain", false, "request developer explanations")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("Error: JWT_SECRET is not set")
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": *userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	script := defaultScript
	if flag.NArg() > 0 {
		script = flag.Args()
	}

	sessionID := "sim-" + uuid.NewString()
	fmt.Println("=== Conversation Simulation ===")
	fmt.Printf("User: %s  Session: %s\n", *userID, sessionID)

	for _, text := range script {
		fmt.Printf("\nUSER: %s\n", text)

		start := time.Now()
		res, err := send(*baseURL, token, sessionID, text, *explain)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("BOT (%s -> %s, intent=%s, %v): %s\n",
			res.Data.StageFrom, res.Data.StageTo, res.Data.Intent, time.Since(start).Round(time.Millisecond), res.Data.ResponseText)
		for _, d := range res.Data.Decisions {
			fmt.Printf("  [%s] %s (%.2f) %s\n", d.Node, d.Result, d.Confidence, d.Explanation)
		}
		if res.Data.Retryable {
			fmt.Println("  (provider failed; turn not applied)")
		}
	}
}

func send(baseURL, token, sessionID, text string, explain bool) (*sendMessageResponse, error) {
	body, _ := json.Marshal(sendMessageRequest{SessionID: sessionID, Message: text})

	url := baseURL + "/message"
	if explain {
		url += "?explain=developer"
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out sendMessageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, out.Message)
	}
	return &out, nil
}
