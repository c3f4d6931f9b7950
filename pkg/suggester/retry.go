// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package suggester

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/shgaterrors"
)

// withRetry ports pkg/httpclient's exponential-backoff-with-jitter
// calculateDelay to a generic retryable call: bounded attempts, doubling
// delay capped at MaxDelayMs, +/-jitter. Only a *shgaterrors.TransientBackendError
// is retried; any other error (including context cancellation) returns
// immediately.
func withRetry(ctx context.Context, cfg config.RetryConfig, backend string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var transient *shgaterrors.TransientBackendError
		if !errors.As(lastErr, &transient) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := time.Duration(math.Pow(2, float64(attempt))) * time.Duration(cfg.BaseDelayMs) * time.Millisecond
		maxDelay := time.Duration(cfg.MaxDelayMs) * time.Millisecond
		if delay > maxDelay {
			delay = maxDelay
		}
		jitter := time.Duration(rand.Float64() * float64(delay) * cfg.Jitter)
		delay += jitter

		select {
		case <-ctx.Done():
			return &shgaterrors.Cancelled{Stage: "suggest:retry:" + backend}
		case <-time.After(delay):
		}
	}
	return lastErr
}
