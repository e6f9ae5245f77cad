// Package sampler implements the logits-to-token pipeline (spec.md §4.6):
// repetition penalty, temperature, top-k, top-p (nucleus), then a
// deterministic seeded categorical sample.
package sampler

import "errors"

var ErrInferenceFailure = errors.New("sampler: non-finite logit")
