package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/models"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase string
	token   string
	client  = &http.Client{Timeout: 30 * time.Second}

	smokeMeal  = models.MealID("dinner")
	smokeFood  = catalog.FoodIDFor("Chicken")
	smokeEntry models.EntryID
)

func main() {
	fmt.Println("=== Diet Planner E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Token", testDevToken},
		{"Clear Plan", testClearPlan},
		{"Set Day Type", testSetDayType},
		{"Add Entry", testAddEntry},
		{"Update Portion", testUpdatePortion},
		{"Check Totals", testTotals},
		{"Export CSV", testExportCSV},
		{"Export PDF", testExportPDF},
		{"Remove Entry", testRemoveEntry},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

type mutation struct {
	Applied bool            `json:"applied"`
	Result  json.RawMessage `json:"result"`
}

func testHealthz() error {
	_, err := do(http.MethodGet, "/healthz", nil, http.StatusOK)
	return err
}

// testDevToken fetches a dev token unless one is given or auth is off.
func testDevToken() error {
	if token != "" {
		return nil
	}

	resp, err := send(http.MethodPost, "/v1/auth/dev", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		fmt.Print("(auth disabled) ")
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	token = result.AccessToken
	return nil
}

func testClearPlan() error {
	_, err := do(http.MethodPost, "/v1/plan/clear", nil, http.StatusOK)
	return err
}

func testSetDayType() error {
	body, err := do(http.MethodPut, "/v1/plan/day-type", map[string]any{
		"target_id": catalog.TargetIDFor("FULL"),
	}, http.StatusOK)
	if err != nil {
		return err
	}
	return expectApplied(body)
}

func testAddEntry() error {
	body, err := do(http.MethodPost, "/v1/plan/entries", map[string]any{
		"meal_id": smokeMeal,
		"food_id": smokeFood,
	}, http.StatusCreated)
	if err != nil {
		return err
	}

	var m mutation
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	var entry models.MealEntry
	if err := json.Unmarshal(m.Result, &entry); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	if entry.ID == "" {
		return fmt.Errorf("no entry_id in response")
	}
	smokeEntry = entry.ID
	return nil
}

func testUpdatePortion() error {
	body, err := do(http.MethodPatch, fmt.Sprintf("/v1/plan/entries/%s/%s", smokeMeal, smokeEntry), map[string]any{
		"portion": 150,
	}, http.StatusOK)
	if err != nil {
		return err
	}
	return expectApplied(body)
}

func testTotals() error {
	body, err := do(http.MethodGet, "/v1/totals", nil, http.StatusOK)
	if err != nil {
		return err
	}

	var result struct {
		Totals struct {
			Kcal float64 `json:"kcal"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Totals.Kcal <= 0 {
		return fmt.Errorf("unexpected totals kcal=%v", result.Totals.Kcal)
	}
	return nil
}

func testExportCSV() error {
	body, err := do(http.MethodGet, "/v1/export?format=csv", nil, http.StatusOK)
	if err != nil {
		return err
	}
	if url, ok := exportURL(body); ok {
		return fetch(url)
	}
	if !bytes.HasPrefix(body, []byte("meal,food,portion,unit,kcal,protein_g")) {
		return fmt.Errorf("unexpected CSV header: %.60q", body)
	}
	if !bytes.Contains(body, []byte("TOTAL")) {
		return fmt.Errorf("CSV has no TOTAL line")
	}
	return nil
}

func testExportPDF() error {
	body, err := do(http.MethodGet, "/v1/export?format=pdf", nil, http.StatusOK)
	if err != nil {
		return err
	}
	if url, ok := exportURL(body); ok {
		return fetch(url)
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		return fmt.Errorf("response is not a PDF")
	}
	return nil
}

func testRemoveEntry() error {
	body, err := do(http.MethodDelete, fmt.Sprintf("/v1/plan/entries/%s/%s", smokeMeal, smokeEntry), nil, http.StatusOK)
	if err != nil {
		return err
	}
	return expectApplied(body)
}

// exportURL returns the download URL when the export went to object storage.
func exportURL(body []byte) (string, bool) {
	if len(body) == 0 || body[0] != '{' {
		return "", false
	}
	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.URL == "" {
		return "", false
	}
	return result.URL, true
}

func fetch(url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

func expectApplied(body []byte) error {
	var m mutation
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if !m.Applied {
		return fmt.Errorf("mutation not applied")
	}
	return nil
}

// ---- helpers ----

func send(method, path string, payload any) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	return client.Do(req)
}

func do(method, path string, payload any, wantStatus int) ([]byte, error) {
	resp, err := send(method, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return nil, statusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
