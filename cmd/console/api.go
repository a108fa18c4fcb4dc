package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"

	"github.com/google/uuid"

	"github.com/jwebster45206/gatekeeper/internal/engine"
	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeOrError(body []byte, statusCode, wantStatus int, v any) error {
	if statusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return fmt.Errorf("API returned status %d: %s", statusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(body, v)
}

func postJSON(client *http.Client, url string, req any, wantStatus int, v any) error {
	var reqBody io.Reader
	if req != nil {
		jsonData, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	resp, err := client.Post(url, "application/json", reqBody)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	return decodeOrError(body, resp.StatusCode, wantStatus, v)
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	return decodeOrError(body, resp.StatusCode, http.StatusOK, v)
}

type createConversationRequest struct {
	Characters []scene.Character `json:"characters"`
}

func createConversation(client *http.Client, baseURL string, characters []scene.Character) (*scene.Conversation, error) {
	var conv scene.Conversation
	err := postJSON(client, baseURL+"/v1/conversations",
		createConversationRequest{Characters: characters},
		http.StatusCreated, &conv)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

type appendMessageRequest struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

func appendMessage(client *http.Client, baseURL string, id uuid.UUID, role, name, content string) error {
	url := fmt.Sprintf("%s/v1/conversations/%s/messages", baseURL, id)
	return postJSON(client, url, appendMessageRequest{Role: role, Name: name, Content: content},
		http.StatusNoContent, nil)
}

func runCycle(client *http.Client, baseURL string, id uuid.UUID) (*engine.CycleResult, error) {
	url := fmt.Sprintf("%s/v1/conversations/%s/cycle", baseURL, id)
	var result engine.CycleResult
	if err := postJSON(client, url, nil, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("cycle failed: %w", err)
	}
	return &result, nil
}

type injectionResponse struct {
	Character string `json:"character"`
	Text      string `json:"text"`
}

func getInjection(client *http.Client, baseURL string, id uuid.UUID, character string) (string, error) {
	url := fmt.Sprintf("%s/v1/conversations/%s/injection?character=%s", baseURL, id, neturl.QueryEscape(character))
	var resp injectionResponse
	if err := getJSON(client, url, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func getDocument(client *http.Client, baseURL string, id uuid.UUID) (*gm.Document, error) {
	url := fmt.Sprintf("%s/v1/conversations/%s/document", baseURL, id)
	var doc gm.Document
	if err := getJSON(client, url, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

type addSeedRequest struct {
	Text string `json:"text"`
}

func addSeed(client *http.Client, baseURL string, id uuid.UUID, text string) (*gm.Seed, error) {
	url := fmt.Sprintf("%s/v1/conversations/%s/seeds", baseURL, id)
	var seed gm.Seed
	if err := postJSON(client, url, addSeedRequest{Text: text}, http.StatusCreated, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

func getSettings(client *http.Client, baseURL string) (*gm.Settings, error) {
	var settings gm.Settings
	if err := getJSON(client, baseURL+"/v1/settings", &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func patchSettings(client *http.Client, baseURL string, patch map[string]any) (*gm.Settings, error) {
	jsonData, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPatch, baseURL+"/v1/settings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var settings gm.Settings
	if err := decodeOrError(body, resp.StatusCode, http.StatusOK, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
