package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"giyus/pkg/domain"
	"giyus/pkg/testutil"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("redis unavailable")
}

func TestPerActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	recruiter := domain.Actor{ID: "recruiter-7", Privilege: domain.PrivilegeRestricted}
	manager := domain.Actor{ID: "manager-1", Privilege: domain.PrivilegePrivileged}

	testutil.Given(t, "a limit of two writes per minute", func(t *testing.T) {
		h := PerActor(NewSlidingWindow(), 2, time.Minute, logger)(ok)
		send := func(actor domain.Actor) *httptest.ResponseRecorder {
			req := testutil.WithActor(httptest.NewRequest(http.MethodPatch, "/leads/1", nil), actor)
			return testutil.DoRequest(h, req)
		}

		testutil.When(t, "one actor sends three writes", func(t *testing.T) {
			first := send(recruiter)
			second := send(recruiter)
			third := send(recruiter)

			testutil.Then(t, "the third is refused with retry headers", func(t *testing.T) {
				assert.Equal(t, http.StatusNoContent, first.Code)
				assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
				assert.Equal(t, http.StatusNoContent, second.Code)
				testutil.AssertStatusAndError(t, third, http.StatusTooManyRequests, "rate_limit_exceeded")
				assert.NotEmpty(t, third.Header().Get("Retry-After"))
			})
		})

		testutil.When(t, "another actor writes", func(t *testing.T) {
			rr := send(manager)
			testutil.Then(t, "their own budget applies", func(t *testing.T) {
				assert.Equal(t, http.StatusNoContent, rr.Code)
			})
		})
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		h := PerActor(failingLimiter{}, 1, time.Minute, logger)(ok)
		req := testutil.WithActor(httptest.NewRequest(http.MethodPost, "/leads", nil), recruiter)
		rr := testutil.DoRequest(h, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
