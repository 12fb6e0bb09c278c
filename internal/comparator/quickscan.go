package comparator

import (
	"fmt"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/scorer"
	"github.com/touchstone-evals/touchstone/internal/similarity"
)

// quickScanLexicon sources the pre-check's opt-out vocabulary from the
// built-in lexicon so the word lists cannot drift apart. QuickScan
// itself stays configuration-free; the full rule engine uses whatever
// lexicon was injected into the Scorer.
var quickScanLexicon = scorer.DefaultLexicon()

// QuickScan returns a flat list of critical mismatches between expected
// and actual output: wrong channel, or missing opt-out language for the
// channel class used. It is a cheap pre-check for terse CLI warnings and
// never contributes to findings.
func QuickScan(expected domain.Expected, actual *domain.AgentOutput) []string {
	var errs []string

	var actMsg *domain.Message
	if actual != nil {
		actMsg = actual.NextMessage
	}

	expChannel := domain.ChannelOf(expected.NextMessage)
	actChannel := domain.ChannelOf(actMsg)
	if expChannel != actChannel {
		errs = append(errs, fmt.Sprintf("channel mismatch: expected %q, got %q", expChannel, actChannel))
	}

	if actMsg == nil || actMsg.Body == nil {
		return errs
	}
	body := *actMsg.Body

	if domain.IsSMSLike(actChannel) &&
		!containsAnyFold(body, quickScanLexicon.SMSOptOutTokens[quickScanLexicon.DefaultLanguage]) {
		errs = append(errs, "sms missing opt-out 'STOP'")
	}

	if domain.IsEmailLike(actChannel) &&
		!containsAnyFold(body, quickScanLexicon.EmailOptOutPhrases) {
		errs = append(errs, "email missing opt-out instructions")
	}

	return errs
}

func containsAnyFold(body string, needles []string) bool {
	for _, n := range needles {
		if similarity.ContainsFold(body, n) {
			return true
		}
	}
	return false
}
