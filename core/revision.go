package core

import "regexp"

// revisionPatterns match phrases that explicitly revise the goal or the
// constraints. ASCII phrases are anchored on word boundaries so that words
// like "cancellation" or a plain "instead" in a question do not count.
var revisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bforget\b`),
	regexp.MustCompile(`(?i)\bno longer\b`),
	regexp.MustCompile(`(?i)\bfrom now on\b`),
	regexp.MustCompile(`(?i)\bignore the previous\b`),
	regexp.MustCompile(`(?i)\bnew (goal|constraint|task)s?\b`),
	regexp.MustCompile(`(?i)\bchange (the|my|our|this) (goal|constraint|task|plan)s?\b`),
	regexp.MustCompile(`(?i)\b(drop|remove|lift) (the|that|this|my|our) (goal|constraint|rule)s?\b`),
	regexp.MustCompile(`(?i)\bcancel (the|that|this|my|our) (goal|task|plan|constraint)s?\b`),
	regexp.MustCompile(`(?i)\b(goal|task|plan) is (done|complete|completed|finished)\b`),
	regexp.MustCompile(`(?i)\bdone with (the|this|that|my|our) (goal|task|plan)\b`),
	regexp.MustCompile(`(?i)\b(goal|constraint|rule)s? instead\b`),
	regexp.MustCompile(`(目標|ゴール|制約|タスク).{0,10}(変更|やめ|忘れ|完了|取り消)`),
	regexp.MustCompile(`忘れて`),
}

// HasRevisionSignal reports whether the input explicitly asks to change the
// goal or the constraints of the conversation.
func HasRevisionSignal(input string) bool {
	for _, re := range revisionPatterns {
		if re.MatchString(input) {
			return true
		}
	}
	return false
}
