package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

func TestMakeCode(t *testing.T) {
	code := errors.MakeCode(errors.ServiceDocQA, errors.CategoryIngest, 2)
	assert.Equal(t, 2104002, code)
	assert.Equal(t, errors.ServiceDocQA, errors.ServiceOf(code))
	assert.Equal(t, errors.CategoryIngest, errors.CategoryOf(code))
}

func TestWithCausePreservesIdentity(t *testing.T) {
	cause := fmt.Errorf("pdf header missing")
	err := errors.ErrParseFailure.WithCause(cause)

	assert.True(t, stderrors.Is(err, errors.ErrParseFailure))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "pdf header missing")

	// WithCause must not mutate the registered instance.
	assert.NoError(t, errors.ErrParseFailure.Unwrap())
}

func TestWithMessageDoesNotMutateOriginal(t *testing.T) {
	err := errors.ErrInvalidRequest.WithMessagef("missing field %q", "question")
	assert.Contains(t, err.Error(), `missing field "question"`)
	assert.Equal(t, "invalid request parameters", errors.ErrInvalidRequest.MessageEN)
}

func TestLookup(t *testing.T) {
	e := errors.Lookup(errors.ErrUnsupportedFileType.Code)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusUnsupportedMediaType, e.HTTPStatus())
	assert.Equal(t, codes.InvalidArgument, e.GRPCCode)
	assert.Nil(t, errors.Lookup(999))
}

func TestMessageLanguageFallback(t *testing.T) {
	assert.Equal(t, "文档不存在", errors.ErrDocumentNotFound.Message("zh"))
	assert.Equal(t, "document not found", errors.ErrDocumentNotFound.Message("en"))
	assert.Equal(t, "document not found", errors.ErrDocumentNotFound.Message("fr"))
}

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", errors.ErrGenerationFailure.WithCause(fmt.Errorf("timeout")))
	e := errors.FromError(wrapped)
	require.NotNil(t, e)
	assert.Equal(t, errors.ErrGenerationFailure.Code, e.Code)

	assert.Nil(t, errors.FromError(fmt.Errorf("plain")))
}
