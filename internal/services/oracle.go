package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

// GradeRequest is the context handed to the grading oracle.
type GradeRequest struct {
	ProgrammingLanguage string          `json:"programming_language"`
	ChallengeText       string          `json:"challenge_text"`
	SubmittedCode       string          `json:"submitted_code"`
	ReferenceSolution   string          `json:"reference_solution,omitempty"`
	ExpectedOutput      string          `json:"expected_output,omitempty"`
	TestCases           json.RawMessage `json:"test_cases,omitempty"`
}

type Verdict struct {
	IsCorrect bool     `json:"isCorrect"`
	Feedback  string   `json:"feedback"`
	Problems  []string `json:"problems,omitempty"`
	Stdout    string   `json:"stdout,omitempty"`
	GradedBy  string   `json:"-"`
}

// Oracle judges a submission. Any error is treated as an OracleFailure by the
// caller and never reaches the learner.
type Oracle interface {
	Grade(ctx context.Context, req GradeRequest) (Verdict, error)
}

var ErrOracleNotConfigured = errors.New("grading oracle not configured")

// OracleFailure wraps the last backend error once every backend was tried.
type OracleFailure struct {
	Backend string
	Err     error
}

func (e *OracleFailure) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Backend, e.Err)
}

func (e *OracleFailure) Unwrap() error { return e.Err }

// verdictPayload is the strict shape of the oracle answer. Pointers let the
// validator tell a missing field from a false/empty one.
type verdictPayload struct {
	IsCorrect *bool    `json:"isCorrect" validate:"required"`
	Feedback  *string  `json:"feedback" validate:"required"`
	Problems  []string `json:"problems"`
	Stdout    string   `json:"stdout"`
}

var verdictValidator = validator.New()

// DecodeVerdict parses the oracle content. Anything that is not a single JSON
// object with both required fields is rejected; fenced or prefixed output is
// not repaired.
func DecodeVerdict(content string) (Verdict, error) {
	var p verdictPayload
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	if dec.More() {
		return Verdict{}, fmt.Errorf("decode verdict: trailing data")
	}
	if err := verdictValidator.Struct(p); err != nil {
		return Verdict{}, fmt.Errorf("invalid verdict: %w", err)
	}
	return Verdict{
		IsCorrect: *p.IsCorrect,
		Feedback:  *p.Feedback,
		Problems:  p.Problems,
		Stdout:    p.Stdout,
	}, nil
}

// HTTPOracle talks to an OpenAI-compatible chat completions endpoint. Each
// model in Models is one backend; they are tried in order and the first valid
// verdict wins.
type HTTPOracle struct {
	client  *resty.Client
	url     string
	apiKey  string
	models  []string
	timeout time.Duration
}

func NewHTTPOracle(url, apiKey string, models []string, timeout time.Duration) *HTTPOracle {
	return &HTTPOracle{
		client:  resty.New().SetHeader("Content-Type", "application/json"),
		url:     url,
		apiKey:  apiKey,
		models:  models,
		timeout: timeout,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const graderInstructions = `You grade a learner's solution to a coding challenge.
Reply with a single JSON object and nothing else:
{"isCorrect": boolean, "feedback": string, "problems": [string], "stdout": string}
"feedback" is short, encouraging and written in the language of the challenge text.
Judge whether the code solves the challenge; formatting differences do not matter.`

func (o *HTTPOracle) Grade(ctx context.Context, req GradeRequest) (Verdict, error) {
	if o == nil || o.url == "" || o.apiKey == "" || len(o.models) == 0 {
		return Verdict{}, &OracleFailure{Backend: "none", Err: ErrOracleNotConfigured}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, &OracleFailure{Backend: "none", Err: err}
	}

	var failure *OracleFailure
	for _, model := range o.models {
		v, err := o.ask(ctx, model, string(body))
		if err == nil {
			v.GradedBy = model
			return v, nil
		}
		failure = &OracleFailure{Backend: model, Err: err}
		logger.Warn().Err(err).Str("model", model).Msg("Grading oracle backend failed")
		if ctx.Err() != nil {
			break
		}
	}
	return Verdict{}, failure
}

func (o *HTTPOracle) ask(ctx context.Context, model, payload string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var out chatResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetAuthToken(o.apiKey).
		SetBody(chatRequest{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: graderInstructions},
				{Role: "user", Content: payload},
			},
			ResponseFormat: map[string]string{"type": "json_object"},
		}).
		SetResult(&out).
		Post(o.url)
	if err != nil {
		return Verdict{}, err
	}
	if resp.IsError() {
		return Verdict{}, fmt.Errorf("status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return Verdict{}, errors.New("empty completion")
	}
	return DecodeVerdict(out.Choices[0].Message.Content)
}
