//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/memberhub/apiserver/config"
	"github.com/memberhub/apiserver/internal/db"
	"github.com/memberhub/apiserver/internal/server"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	configureEnv()

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestMemberLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	account := fmt.Sprintf("member_%d@example.com", time.Now().UnixNano())
	password := "testpass123!"

	memberID, err := signUpMember(t, baseURL, account, password)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if memberID == "" {
		t.Fatal("missing member id in sign up response")
	}

	// Second registration with the same account must conflict and must not
	// add a second row.
	if err := expectDuplicateSignUp(t, baseURL, account, password); err != nil {
		t.Fatalf("duplicate sign up: %v", err)
	}
	if count, err := countRows(account); err != nil || count != 1 {
		t.Fatalf("expected one row for %s, got %d (err: %v)", account, count, err)
	}

	token, err := login(t, baseURL, account, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := expectLoginFailure(t, baseURL, account, "wrong-password", 406); err != nil {
		t.Fatalf("wrong password: %v", err)
	}
	if err := expectLoginFailure(t, baseURL, "nobody@example.com", password, 402); err != nil {
		t.Fatalf("unknown account: %v", err)
	}

	profileID, err := fetchProfile(t, baseURL, token)
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if profileID != memberID {
		t.Fatalf("profile subject %q, want %q", profileID, memberID)
	}

	if err := expectUnauthorized(t, baseURL+"/member/profile", ""); err != nil {
		t.Fatalf("missing token: %v", err)
	}
	if err := expectUnauthorized(t, baseURL+"/member/profile", "garbage-token"); err != nil {
		t.Fatalf("garbage token: %v", err)
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Data    struct {
		MemberID string `json:"member_id"`
		Token    string `json:"token"`
	} `json:"data"`
}

func signUpMember(t *testing.T, baseURL, account, password string) (string, error) {
	t.Helper()

	status, parsed, err := postJSON(baseURL+"/member/signup", map[string]string{
		"member_account":  account,
		"member_password": password,
		"member_name":     "E2E Member",
		"member_birthday": "1990/05/17",
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("sign up status %d", status)
	}
	return parsed.Data.MemberID, nil
}

func expectDuplicateSignUp(t *testing.T, baseURL, account, password string) error {
	t.Helper()

	status, _, err := postJSON(baseURL+"/member/signup", map[string]string{
		"member_account":  account,
		"member_password": password,
	})
	if err != nil {
		return err
	}
	if status != http.StatusConflict {
		return fmt.Errorf("expected 409, got %d", status)
	}
	return nil
}

func login(t *testing.T, baseURL, account, password string) (string, error) {
	t.Helper()

	status, parsed, err := postJSON(baseURL+"/member/login", map[string]string{
		"member_account":  account,
		"member_password": password,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || parsed.Data.Token == "" {
		return "", fmt.Errorf("login status %d, token %q", status, parsed.Data.Token)
	}
	return parsed.Data.Token, nil
}

func expectLoginFailure(t *testing.T, baseURL, account, password string, code int) error {
	t.Helper()

	status, parsed, err := postJSON(baseURL+"/member/login", map[string]string{
		"member_account":  account,
		"member_password": password,
	})
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return fmt.Errorf("expected 401, got %d", status)
	}
	if parsed.Code != code {
		return fmt.Errorf("expected internal code %d, got %d", code, parsed.Code)
	}
	if parsed.Error != "account or password incorrect" {
		return fmt.Errorf("unexpected external message %q", parsed.Error)
	}
	return nil
}

func fetchProfile(t *testing.T, baseURL, token string) (string, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/member/profile", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("profile status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Data.MemberID, nil
}

func expectUnauthorized(t *testing.T, url, token string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("expected 401, got %d", resp.StatusCode)
	}
	return nil
}

func postJSON(url string, payload map[string]string) (int, apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, apiResponse{}, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, apiResponse{}, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && err != io.EOF {
		return resp.StatusCode, apiResponse{}, err
	}
	return resp.StatusCode, parsed, nil
}

func countRows(account string) (int, error) {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg))
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err = conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE member_account = $1", account).Scan(&count)
	return count, err
}

func configureEnv() {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "member")
	_ = os.Setenv("DB_PASSWORD", "member")
	_ = os.Setenv("DB_NAME", "member")
	_ = os.Setenv("DB_USE_SSL", "false")
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
