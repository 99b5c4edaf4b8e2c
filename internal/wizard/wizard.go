// Package wizard drives an import through its four stages: upload, currency
// resolution, preview and results. It is an explicit state machine; actions
// that do not fit the current stage are rejected.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"fjacquet/ledger-import/internal/currency"
	"fjacquet/ledger-import/internal/ledger"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/normalizer"
	"fjacquet/ledger-import/internal/preview"
	"fjacquet/ledger-import/internal/submit"
	"fjacquet/ledger-import/internal/upload"
)

// Analyzer reads an export file into an upload result.
type Analyzer interface {
	Analyze(name string, r io.Reader, registry models.CurrencyRegistry) (*upload.Result, error)
}

// Options configures a Wizard.
type Options struct {
	// Timeout bounds a submission. Zero means no timeout.
	Timeout  time.Duration
	PageSize int
}

// Wizard is one import session. It is safe for concurrent use; at most one
// submission is in flight at a time.
type Wizard struct {
	mu sync.Mutex

	analyzer Analyzer
	source   ledger.Source
	executor submit.Executor
	logger   logging.Logger
	opts     Options

	state      State
	snapshot   *ledger.Snapshot
	upload     *upload.Result
	answers    *currency.Resolutions
	result     *models.FullImportResponse
	lastErr    error
	submitting bool
}

// New creates a wizard in the upload state.
func New(analyzer Analyzer, source ledger.Source, executor submit.Executor, logger logging.Logger, opts Options) *Wizard {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = preview.DefaultPageSize
	}
	return &Wizard{
		analyzer: analyzer,
		source:   source,
		executor: executor,
		logger:   logger,
		opts:     opts,
		state:    StateUpload,
	}
}

// State returns the current stage.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) check(action Action) error {
	if w.submitting {
		return ErrSubmissionInFlight
	}
	if !Allowed(w.state, action) {
		return invalid(w.state, action)
	}
	return nil
}

func (w *Wizard) moveTo(next State, action Action) {
	w.logger.Debug("Wizard transition",
		logging.F(logging.FieldState, string(next)),
		logging.F(logging.FieldAction, string(action)))
	w.state = next
}

// clear drops everything derived from the current file.
func (w *Wizard) clear() {
	w.snapshot = nil
	w.upload = nil
	w.answers = nil
	w.result = nil
	w.lastErr = nil
}

// SelectFile analyses a new file against a freshly loaded ledger snapshot.
// All state derived from a previous file is discarded first, so a failed
// analysis leaves the wizard with no upload.
func (w *Wizard) SelectFile(ctx context.Context, name string, r io.Reader) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(ActionSelectFile); err != nil {
		return err
	}
	w.clear()

	snap, err := w.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	res, err := w.analyzer.Analyze(name, r, snap.Currencies)
	if err != nil {
		w.logger.WithError(err).Warn("Upload rejected", logging.F(logging.FieldFile, name))
		return err
	}

	w.snapshot = snap
	w.upload = res
	w.answers = currency.NewResolutions(res.UnresolvedCurrencies, snap.Currencies)
	return nil
}

// Upload returns the current upload result, or nil.
func (w *Wizard) Upload() *upload.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.upload
}

// Next advances. From upload it skips currency resolution when every token
// matched; from resolution it requires every token to be answered.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(ActionNext); err != nil {
		return err
	}

	switch w.state {
	case StateUpload:
		if w.upload == nil {
			return fmt.Errorf("%w: no file selected", ErrInvalidTransition)
		}
		if w.upload.HasUnresolved() {
			w.moveTo(StateResolveCurrencies, ActionNext)
		} else {
			w.moveTo(StatePreview, ActionNext)
		}
	case StateResolveCurrencies:
		if err := w.answers.Gate(); err != nil {
			return err
		}
		w.moveTo(StatePreview, ActionNext)
	}
	return nil
}

// Back returns to the previous stage. Preview goes back to resolution only
// if the upload had unresolved tokens. Currency answers are kept.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(ActionBack); err != nil {
		return err
	}

	w.lastErr = nil
	switch w.state {
	case StateResolveCurrencies:
		w.moveTo(StateUpload, ActionBack)
	case StatePreview:
		if w.upload.HasUnresolved() {
			w.moveTo(StateResolveCurrencies, ActionBack)
		} else {
			w.moveTo(StateUpload, ActionBack)
		}
	}
	return nil
}

// PendingCurrencies lists the tokens still without an answer.
func (w *Wizard) PendingCurrencies() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.answers == nil {
		return nil
	}
	return w.answers.Pending()
}

// MapCurrency answers token with an existing registry code.
func (w *Wizard) MapCurrency(token, code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(ActionResolveCurrency); err != nil {
		return err
	}
	return w.answers.MapExisting(token, code)
}

// ProposeCurrency answers token with a currency to create.
func (w *Wizard) ProposeCurrency(token, code, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(ActionResolveCurrency); err != nil {
		return err
	}
	return w.answers.ProposeNew(token, code, name)
}

// Stats recomputes the preview statistics.
func (w *Wizard) Stats() (models.PreviewStats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePreview {
		return models.PreviewStats{}, fmt.Errorf("%w: preview is not available in state %s", ErrInvalidTransition, w.state)
	}
	return preview.Compute(w.upload.Rows, w.upload.Dialect.DecimalSeparator, w.snapshot.PreviewLedger()), nil
}

// Page returns one page of normalized rows.
func (w *Wizard) Page(index int) (preview.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePreview {
		return preview.Page{}, fmt.Errorf("%w: preview is not available in state %s", ErrInvalidTransition, w.state)
	}
	rows := normalizer.NormalizeAll(w.upload.Rows, w.upload.Dialect.DecimalSeparator)
	return preview.Paginate(rows, index, w.opts.PageSize), nil
}

// CanSubmit reports whether a submission may start now.
func (w *Wizard) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StatePreview && !w.submitting && w.upload != nil && len(w.upload.Rows) > 0
}

// Submit sends the import. On failure the wizard stays in preview with the
// error recorded so the user can retry; on success it moves to results.
func (w *Wizard) Submit(ctx context.Context) (*models.FullImportResponse, error) {
	w.mu.Lock()
	if err := w.check(ActionSubmit); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if len(w.upload.Rows) == 0 {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: nothing to import", ErrInvalidTransition)
	}
	req := submit.BuildRequest(w.upload, w.answers)
	w.submitting = true
	w.lastErr = nil
	w.mu.Unlock()

	if w.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := w.executor.ImportFull(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		w.lastErr = err
		w.logger.WithError(err).Error("Import submission failed",
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		return nil, err
	}
	if resp == nil {
		w.lastErr = errors.New("executor returned no result")
		return nil, w.lastErr
	}

	w.result = resp
	w.moveTo(StateResults, ActionSubmit)
	return resp, nil
}

// LastError returns the error of the last failed submission, if any.
func (w *Wizard) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Result returns the outcome of the successful submission.
func (w *Wizard) Result() *models.FullImportResponse {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Reset starts over from the upload stage with nothing retained.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(ActionReset); err != nil {
		return err
	}
	w.clear()
	w.moveTo(StateUpload, ActionReset)
	return nil
}
