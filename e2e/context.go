// Package e2e drives a running practiceops server over HTTP. Point it at an
// instance with E2E_BASE_URL and the server's JWT_SIGNING_KEY; staff members
// exist only as minted tokens, since the core trusts the profile subsystem's
// claims.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type member struct {
	id    string
	role  string
	token string
}

// TestContext carries shared state across steps: registered staff, the last
// response, and values saved from earlier responses.
type TestContext struct {
	baseURL    string
	signingKey []byte
	client     *http.Client

	members map[string]member

	LastStatus int
	LastBody   map[string]any
	Saved      map[string]string
}

func NewTestContext() *TestContext {
	base := os.Getenv("E2E_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	key := os.Getenv("JWT_SIGNING_KEY")
	if key == "" {
		key = "dev-secret-key-change-in-production"
	}
	return &TestContext{
		baseURL:    base,
		signingKey: []byte(key),
		client:     &http.Client{Timeout: 10 * time.Second},
		members:    make(map[string]member),
		Saved:      make(map[string]string),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.members = make(map[string]member)
	tc.Saved = make(map[string]string)
	tc.LastStatus = 0
	tc.LastBody = nil
}

// RegisterMember mints an identity and token for a named staff member.
func (tc *TestContext) RegisterMember(alias, role string) error {
	id := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  id,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.signingKey)
	if err != nil {
		return fmt.Errorf("mint token for %s: %w", alias, err)
	}
	tc.members[alias] = member{id: id, role: role, token: token}
	return nil
}

// StaffID returns the minted ID for a registered alias.
func (tc *TestContext) StaffID(alias string) (string, error) {
	m, ok := tc.members[alias]
	if !ok {
		return "", fmt.Errorf("unknown staff member %q", alias)
	}
	return m.id, nil
}

// Role returns the role a registered alias was minted with.
func (tc *TestContext) Role(alias string) (string, error) {
	m, ok := tc.members[alias]
	if !ok {
		return "", fmt.Errorf("unknown staff member %q", alias)
	}
	return m.role, nil
}

// Do sends a request as the named member and captures the response.
func (tc *TestContext) Do(alias, method, path string, body any) error {
	m, ok := tc.members[alias]
	if !ok {
		return fmt.Errorf("unknown staff member %q", alias)
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.LastStatus = resp.StatusCode
	tc.LastBody = nil
	_ = json.NewDecoder(resp.Body).Decode(&tc.LastBody)
	return nil
}

// AssertStatus checks the last response status.
func (tc *TestContext) AssertStatus(want int) error {
	if tc.LastStatus != want {
		return fmt.Errorf("expected status %d, got %d (body: %v)", want, tc.LastStatus, tc.LastBody)
	}
	return nil
}

// AssertField checks a string field of the last response body.
func (tc *TestContext) AssertField(field, want string) error {
	got, ok := tc.LastBody[field].(string)
	if !ok {
		return fmt.Errorf("response has no string field %q (body: %v)", field, tc.LastBody)
	}
	if got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

// SavedValue returns a previously saved value.
func (tc *TestContext) SavedValue(name string) (string, error) {
	value, ok := tc.Saved[name]
	if !ok {
		return "", fmt.Errorf("nothing saved under %q", name)
	}
	return value, nil
}

// Save stores a string field of the last response under a name for later
// steps.
func (tc *TestContext) Save(name, field string) error {
	value, ok := tc.LastBody[field].(string)
	if !ok {
		return fmt.Errorf("response has no string field %q (body: %v)", field, tc.LastBody)
	}
	tc.Saved[name] = value
	return nil
}
