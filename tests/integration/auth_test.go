package integration

import (
	"net/http"
	"testing"

	"minibooks/internal/models"
)

func TestAuthFlow_RegisterLoginProfile(t *testing.T) {
	app := setupApp(t, "")

	// Step 1: Register
	token, userID := app.registerUser(t, "auth@test.com", "password123")
	if token == "" {
		t.Fatal("expected non-empty token from registration")
	}
	if userID == 0 {
		t.Fatal("expected non-zero user ID")
	}

	// Step 2: Login with the same credentials
	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"auth@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	loginToken := parseJSON(t, rec)["token"].(string)

	// Step 3: Access the profile with the login token
	rec = app.request("GET", "/api/v1/profile", "", loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "auth@test.com" {
		t.Errorf("expected email auth@test.com, got %v", user["email"])
	}

	// Step 4: Login stamps the last-login timestamp
	var stored models.User
	if err := app.DB.Where("email = ?", "auth@test.com").First(&stored).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Error("expected last login to be recorded")
	}

	// Step 5: The review queue is closed without a token
	rec = app.request("GET", "/api/v1/provider/review", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	// Step 6: Wrong password is refused
	rec = app.request("POST", "/api/v1/auth/login",
		`{"email":"auth@test.com","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on a wrong password, got %d", rec.Code)
	}
}
