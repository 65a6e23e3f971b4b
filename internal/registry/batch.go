package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/reps/internal/repository"
)

const (
	// DefaultConcurrency bounds how many repositories a batch processes at once.
	DefaultConcurrency = 4

	batchStartedMessageConstant       = "Starting batch"
	batchFinishedMessageConstant      = "Finished batch"
	repositoryFailedMessageConstant   = "Repository operation failed"
	repositorySkippedMessageConstant  = "Repository operation skipped"
	logFieldRunIDConstant             = "run_id"
	logFieldOperationConstant         = "operation"
	logFieldConcurrencyConstant       = "concurrency"
	logFieldRepositoryPathConstant    = "repository_path"
	logFieldFailureCountConstant      = "failure_count"
	logFieldSkippedCountConstant      = "skipped_count"
	batchErrorTemplateConstant        = "%d of %d repositories failed"
	batchSkippedSuffixTemplate        = ", %d skipped"
	repositoryFailureTemplateConstant = "%s: %v"
	failureListSeparatorConstant      = "; "
)

// RepositoryOperation runs against one repository within a batch.
type RepositoryOperation func(executionContext context.Context, target *repository.Repository) error

// RepositoryFailure records the error one repository produced.
type RepositoryFailure struct {
	RepositoryPath string
	Err            error
}

// BatchError aggregates the outcome of a batch in which at least one repository failed or was skipped.
type BatchError struct {
	Total    int
	Failures []RepositoryFailure
	Skipped  []string
}

func (batchError BatchError) Error() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(batchErrorTemplateConstant, len(batchError.Failures), batchError.Total))
	if len(batchError.Skipped) > 0 {
		builder.WriteString(fmt.Sprintf(batchSkippedSuffixTemplate, len(batchError.Skipped)))
	}
	for index, failure := range batchError.Failures {
		if index == 0 {
			builder.WriteString(": ")
		} else {
			builder.WriteString(failureListSeparatorConstant)
		}
		builder.WriteString(fmt.Sprintf(repositoryFailureTemplateConstant, failure.RepositoryPath, failure.Err))
	}
	return builder.String()
}

// Unwrap exposes the individual repository errors.
func (batchError BatchError) Unwrap() []error {
	errs := make([]error, 0, len(batchError.Failures))
	for _, failure := range batchError.Failures {
		errs = append(errs, failure.Err)
	}
	return errs
}

type repositoryOutcome struct {
	err     error
	skipped bool
}

// RunActive applies operation to every active repository with at most concurrency
// running at once. Every repository runs to completion regardless of the others;
// once executionContext is cancelled, repositories not yet started are skipped.
func (manager *Manager) RunActive(executionContext context.Context, operationName string, concurrency int, operation RepositoryOperation) error {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	activeRepositories := manager.ActiveRepositories()
	batchLogger := manager.logger.With(
		zap.String(logFieldRunIDConstant, uuid.NewString()),
		zap.String(logFieldOperationConstant, operationName))
	batchLogger.Info(batchStartedMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, len(activeRepositories)),
		zap.Int(logFieldConcurrencyConstant, concurrency))

	outcomes := make([]repositoryOutcome, len(activeRepositories))
	var group errgroup.Group
	group.SetLimit(concurrency)
	for index, target := range activeRepositories {
		index, target := index, target
		group.Go(func() error {
			outcome := repositoryOutcome{}
			if executionContext.Err() != nil {
				outcome.skipped = true
			} else {
				outcome.err = operation(context.WithoutCancel(executionContext), target)
			}
			outcomes[index] = outcome
			return nil
		})
	}
	_ = group.Wait()

	batchError := BatchError{Total: len(activeRepositories)}
	for index, outcome := range outcomes {
		repositoryPath := activeRepositories[index].Path()
		switch {
		case outcome.skipped:
			batchLogger.Warn(repositorySkippedMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
			batchError.Skipped = append(batchError.Skipped, repositoryPath)
		case outcome.err != nil:
			batchLogger.Warn(repositoryFailedMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath), zap.Error(outcome.err))
			batchError.Failures = append(batchError.Failures, RepositoryFailure{RepositoryPath: repositoryPath, Err: outcome.err})
		}
	}
	batchLogger.Info(batchFinishedMessageConstant,
		zap.Int(logFieldFailureCountConstant, len(batchError.Failures)),
		zap.Int(logFieldSkippedCountConstant, len(batchError.Skipped)))

	if len(batchError.Failures) > 0 || len(batchError.Skipped) > 0 {
		return batchError
	}
	return nil
}
