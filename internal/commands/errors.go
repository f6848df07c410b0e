package commands

import (
	"context"
	"errors"

	"github.com/finsum-dev/finsum/internal/config"
	"github.com/finsum-dev/finsum/internal/importer"
	"github.com/finsum-dev/finsum/internal/insight"
	"github.com/finsum-dev/finsum/internal/report"
	"github.com/finsum-dev/finsum/internal/validate"
)

// Hint returns a one-line remedy for err, or "" when none applies.
func Hint(err error) string {
	var keyErr *config.KeyError
	var parseErr *importer.ParseError
	var writeErr *report.WriteError

	switch {
	case errors.As(err, &keyErr) && errors.Is(err, config.ErrMissingAPIKey):
		return "add " + keyErr.Env + " to your environment or .env file"
	case errors.As(err, &keyErr):
		return "check " + keyErr.Env + "; API keys are at least 20 characters"
	case errors.Is(err, config.ErrInvalidConfig):
		return "fix " + config.FileName + " or the FINSUM_* environment variables"
	case errors.Is(err, importer.ErrFileNotFound):
		return "put your export at data/" + importer.DefaultFile + ", pass a path, or use --sample"
	case errors.Is(err, importer.ErrEmptyDataset):
		return "no readable rows; run 'finsum validate <csv>' to see why rows were skipped"
	case errors.As(err, &parseErr):
		return "the file must be a comma-separated CSV in UTF-8 or UTF-16"
	case errors.Is(err, validate.ErrSchema):
		return "the CSV needs Date, Description, Amount and Type columns (common aliases are accepted)"
	case errors.Is(err, insight.ErrAuth):
		return "the API key was rejected; check it in the provider console"
	case errors.Is(err, insight.ErrRateLimited):
		return "still rate limited after retries; wait a minute and try again"
	case errors.Is(err, insight.ErrTimeout):
		return "the service did not answer in time; try again or raise timeout in " + config.FileName
	case errors.Is(err, insight.ErrServiceUnavailable):
		return "the service is unavailable; try again later"
	case errors.Is(err, insight.ErrBadRequest):
		return "the request was rejected; check model and max_tokens"
	case errors.Is(err, insight.ErrEmptyResponse):
		return "the model returned no text; try again"
	case errors.As(err, &writeErr):
		return "check that reports_dir exists and is writable"
	case errors.Is(err, context.Canceled):
		return "interrupted; no report was written"
	}
	return ""
}
