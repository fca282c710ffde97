package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pq.Error{Code: codeSerializationFailure}))
	assert.True(t, isRetryable(fmt.Errorf("saving user: %w", &pq.Error{Code: codeDeadlockDetected})))
	assert.False(t, isRetryable(&pq.Error{Code: "23505"}))
	assert.False(t, isRetryable(errors.New("boom")))
}
