package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/go-resty/resty/v2"
)

type PistonExecuteRequest struct {
	Language       string   `json:"language"`
	Version        string   `json:"version"`
	Files          []File   `json:"files"`
	Stdin          string   `json:"stdin"`
	Args           []string `json:"args"`
	RunTimeout     int      `json:"run_timeout"`      // milliseconds
	CompileTimeout int      `json:"compile_timeout"`  // milliseconds
	RunMemoryLimit int      `json:"run_memory_limit"` // bytes
}

type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type RunOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Code   int    `json:"code"`
	Signal string `json:"signal"`
}

type PistonExecuteResponse struct {
	Language string    `json:"language"`
	Version  string    `json:"version"`
	Run      RunOutput `json:"run"`
}

const pistonCacheTTL = time.Hour

// Runner executes learner code on a Piston instance for the "run" preview.
// Results are cached in Redis when it is available.
type Runner struct {
	client *resty.Client
	url    string
}

func NewRunner(url string) *Runner {
	return &Runner{
		client: resty.New().SetTimeout(20 * time.Second),
		url:    url,
	}
}

var pistonLanguages = map[string]string{
	"typescript": "typescript",
	"javascript": "javascript",
	"python":     "python",
	"go":         "go",
	"cpp":        "c++",
	"c++":        "c++",
	"java":       "java",
	"rust":       "rust",
	"c":          "c",
	"php":        "php",
}

var pistonFiles = map[string]string{
	"typescript": "index.ts",
	"javascript": "index.js",
	"python":     "main.py",
	"go":         "main.go",
	"c++":        "main.cpp",
	"cpp":        "main.cpp",
	"java":       "Main.java",
	"rust":       "main.rs",
	"c":          "main.c",
	"php":        "index.php",
}

// normalizePistonLanguage converts lesson language names to Piston names
func normalizePistonLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if p, ok := pistonLanguages[lang]; ok {
		return p
	}
	return lang
}

func pistonFileName(lang string) string {
	if f, ok := pistonFiles[strings.ToLower(lang)]; ok {
		return f
	}
	return "code.txt"
}

func pistonCacheKey(language, code, stdin string) string {
	hash := sha256.Sum256([]byte(language + ":" + code + ":" + stdin))
	return "piston:" + hex.EncodeToString(hash[:])
}

// Execute runs code and returns Piston's output. Web languages are rendered
// by the client and never reach Piston.
func (r *Runner) Execute(ctx context.Context, language, code, stdin string) (*PistonExecuteResponse, error) {
	switch language {
	case "html", "css", "markdown":
		return &PistonExecuteResponse{
			Language: language,
			Version:  "web-n/a",
			Run:      RunOutput{Stdout: "Rendering preview on client."},
		}, nil
	}

	key := pistonCacheKey(language, code, stdin)
	var cached PistonExecuteResponse
	if err := database.CacheGet(key, &cached); err == nil {
		logger.Debug().Str("lang", language).Msg("Cache hit for code execution")
		return &cached, nil
	}

	lang := normalizePistonLanguage(language)
	body := PistonExecuteRequest{
		Language:       lang,
		Version:        "*",
		Files:          []File{{Name: pistonFileName(language), Content: code}},
		Stdin:          stdin,
		RunTimeout:     5000,
		CompileTimeout: 10000,
		RunMemoryLimit: 256 * 1024 * 1024,
	}

	start := time.Now()
	var result PistonExecuteResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(r.url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("piston api failed with status: %d", resp.StatusCode())
	}

	logger.Info().
		Str("lang", language).
		Dur("latency", time.Since(start)).
		Msg("Executed code via Piston")

	if err := database.CacheSet(key, result, pistonCacheTTL); err != nil && err != database.ErrCacheDisabled {
		logger.Warn().Err(err).Msg("Failed to cache execution result")
	}
	return &result, nil
}
