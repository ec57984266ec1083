// expect.go — spec.md §4.6's assertion engine: a transient Expectation
// polls a single predicate query until it matches or the deadline passes,
// with negation swapping success and timeout. Polling cadence is a fixed
// interval, the constant-backoff/v4 policy configured to spec's 100ms
// default rather than an exponential one (assertions re-poll a cheap RPC,
// not a remote service that benefits from backing off).
package locator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/corvid-labs/drivebridge/internal/errs"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultPollRate = 100 * time.Millisecond
)

// Expectation holds the target locator and polling configuration built up
// by expect(locator) and its chained modifiers. Lifetime is limited to one
// awaited assertion call (spec §4.6).
type Expectation struct {
	target   Locator
	timeout  time.Duration
	interval time.Duration
	negated  bool
}

// Expect builds the default Expectation: 5s timeout, 100ms polling
// interval, not negated.
func Expect(target Locator) Expectation {
	return Expectation{target: target, timeout: defaultTimeout, interval: defaultPollRate}
}

// Not returns a copy of the Expectation with its negation flag toggled.
func (e Expectation) Not() Expectation {
	e.negated = !e.negated
	return e
}

// Timeout overrides the default 5s deadline.
func (e Expectation) Timeout(d time.Duration) Expectation {
	e.timeout = d
	return e
}

// poll runs predicate at e.interval until it returns true, an error, or the
// deadline elapses. Negation swaps the success/timeout outcome (spec §4.6's
// negation law): a positive assertion succeeds as soon as the predicate
// holds and fails on timeout while it does not; a negated one succeeds as
// soon as the predicate does not hold and fails on timeout while it does.
func (e Expectation) poll(condition string, predicate func() (bool, error)) error {
	deadline := time.Now().Add(e.timeout)
	start := time.Now()

	policy := backoff.NewConstantBackOff(e.interval)

	for {
		ok, err := predicate()
		if err != nil {
			return err
		}
		if ok != e.negated {
			return nil
		}
		if time.Now().After(deadline) {
			return errs.NewAssertionTimeout(e.target.Selector(), e.conditionPhrase(condition), e.timeout, time.Since(start))
		}
		time.Sleep(policy.NextBackOff())
	}
}

func (e Expectation) conditionPhrase(condition string) string {
	if e.negated {
		return "not " + condition
	}
	return condition
}

// ToBeVisible asserts the locator's match is (or, negated, is not) visible.
func (e Expectation) ToBeVisible() error {
	return e.poll("be visible", e.target.IsVisible)
}

// ToBeChecked asserts the locator's match is (or is not) checked.
func (e Expectation) ToBeChecked() error {
	return e.poll("be checked", e.target.IsChecked)
}

// ToBeEnabled asserts the locator's match is (or is not) enabled.
func (e Expectation) ToBeEnabled() error {
	return e.poll("be enabled", e.target.IsEnabled)
}

// ToBeFocused asserts the locator's match does (or does not) have focus.
func (e Expectation) ToBeFocused() error {
	return e.poll("be focused", e.target.IsFocused)
}

// ToHaveText asserts the locator's trimmed inner text equals want.
func (e Expectation) ToHaveText(want string) error {
	return e.poll(fmt.Sprintf("have text %q", want), func() (bool, error) {
		got, err := e.target.InnerText()
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(got) == want, nil
	})
}

// ToMatchText asserts the locator's trimmed inner text matches re.
func (e Expectation) ToMatchText(re *regexp.Regexp) error {
	return e.poll("match text "+re.String(), func() (bool, error) {
		got, err := e.target.InnerText()
		if err != nil {
			return false, err
		}
		return re.MatchString(strings.TrimSpace(got)), nil
	})
}

// ToHaveValue asserts the locator's form-control value equals want.
func (e Expectation) ToHaveValue(want string) error {
	return e.poll(fmt.Sprintf("have value %q", want), func() (bool, error) {
		got, err := e.target.InputValue()
		if err != nil {
			return false, err
		}
		return got == want, nil
	})
}
