package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/pipeline"
)

// Target is a country to ask about. A nil Record asks without a selection.
type Target struct {
	Code   string
	Record *model.StatisticsRecord
}

// QuestionJob asks a single question about a single target
type QuestionJob struct {
	Index    int
	Question string
	Target   Target
	Answerer pipeline.Answerer
	Limiter  *Limiter
	LimitKey string
	Delay    time.Duration
}

// Execute executes the question job
func (j *QuestionJob) Execute(ctx context.Context) (result *QuestionResult) {
	result = j.newResult()
	defer func() {
		if v := recover(); v != nil {
			result.setError(fmt.Errorf("answer panicked: %v", v))
		}
	}()

	if j.Limiter != nil {
		if err := j.Limiter.WaitWithDelay(ctx, j.LimitKey, j.Delay); err != nil {
			result.setError(fmt.Errorf("rate limit: %w", err))
			return result
		}
	}

	answer, err := j.Answerer.Answer(ctx, j.Question, j.Target.Record)
	if err != nil {
		result.setError(err)
		return result
	}

	result.Answer = answer.Text
	result.Model = answer.Model
	result.Cached = answer.Cached
	result.DurationMS = answer.Duration.Milliseconds()
	return result
}

func (j *QuestionJob) newResult() *QuestionResult {
	return &QuestionResult{
		Index:    j.Index,
		Country:  j.Target.Code,
		Question: j.Question,
	}
}

// QuestionResult represents the result of a question job
type QuestionResult struct {
	Index      int    `json:"-"`
	Country    string `json:"country,omitempty"`
	Question   string `json:"question"`
	Answer     string `json:"answer,omitempty"`
	Model      string `json:"model,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`

	err error
}

func (r *QuestionResult) setError(err error) {
	r.err = err
	r.Error = err.Error()
}

// GetError returns the error from the question result
func (r *QuestionResult) GetError() error {
	return r.err
}

// BatchReport is the outcome of one batch run
type BatchReport struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Results    []*QuestionResult `json:"results"`
}

// BatchProcessor fans questions across countries on a worker pool
type BatchProcessor struct {
	answerer    pipeline.Answerer
	concurrency int
	limiter     *Limiter
	limitKey    string
	delay       time.Duration
}

// NewBatchProcessor creates a new batch processor. limiter may be nil.
func NewBatchProcessor(answerer pipeline.Answerer, concurrency int, limiter *Limiter, limitKey string) *BatchProcessor {
	return &BatchProcessor{
		answerer:    answerer,
		concurrency: concurrency,
		limiter:     limiter,
		limitKey:    limitKey,
	}
}

// SetDelay adds a pause after each rate-limit wait, before the call.
// It has no effect without a limiter.
func (b *BatchProcessor) SetDelay(d time.Duration) {
	b.delay = d
}

// Process asks every question about every target. Results come back in
// question-major order regardless of completion order.
func (b *BatchProcessor) Process(ctx context.Context, questions []string, targets []Target) *BatchReport {
	report := &BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Results:   []*QuestionResult{},
	}

	if len(targets) == 0 {
		targets = []Target{{}}
	}

	var jobs []*QuestionJob
	for _, q := range questions {
		for _, t := range targets {
			jobs = append(jobs, &QuestionJob{
				Index:    len(jobs),
				Question: q,
				Target:   t,
				Answerer: b.answerer,
				Limiter:  b.limiter,
				LimitKey: b.limitKey,
				Delay:    b.delay,
			})
		}
	}

	tasks := make([]Task[*QuestionResult], len(jobs))
	for i, job := range jobs {
		tasks[i] = job.Execute
	}
	for _, r := range Run(ctx, b.concurrency, tasks, nil) {
		if r != nil {
			report.Results = append(report.Results, r)
		}
	}

	// Jobs never started because ctx ended still get a result
	if len(report.Results) < len(jobs) {
		seen := make(map[int]bool, len(report.Results))
		for _, r := range report.Results {
			seen[r.Index] = true
		}
		for _, job := range jobs {
			if !seen[job.Index] {
				r := job.newResult()
				r.setError(fmt.Errorf("not started: %w", context.Cause(ctx)))
				report.Results = append(report.Results, r)
			}
		}
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Index < report.Results[j].Index
	})

	for _, r := range report.Results {
		if r.GetError() != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	report.FinishedAt = time.Now().UTC()

	return report
}

// ProcessFile reads questions from a file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, targets []Target) (*BatchReport, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return b.Process(ctx, questions, targets), nil
}

// ReadQuestionsFromFile reads questions from a file (one per line)
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			questions = append(questions, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return questions, nil
}
