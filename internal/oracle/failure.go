package oracle

import "fmt"

// FailureKind distinguishes the oracle failure subtypes of the pipeline's
// error taxonomy. Every kind maps to its own user-facing message; a raw
// error never reaches the chat.
type FailureKind string

const (
	// FailureConfig: missing or invalid oracle credential. Administrator
	// actionable, not retried.
	FailureConfig FailureKind = "config"
	// FailureTransport: the oracle call itself failed. Transient; the user
	// may retry manually.
	FailureTransport FailureKind = "transport"
	// FailureEmpty: the oracle returned no completion text.
	FailureEmpty FailureKind = "empty-completion"
	// FailureUnparsable: no usable JSON object in the completion.
	FailureUnparsable FailureKind = "unparsable-completion"
)

// Failure is a typed oracle failure carrying the message shown to the user.
type Failure struct {
	Kind        FailureKind
	UserMessage string
	Err         error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("oracle: %s: %v", f.Kind, f.Err)
}

const rephraseGuidance = "لم أفهم الرسالة. جرب صياغة أوضح، مثلاً:\n" +
	"• صرفت 50 جنيه على الغداء\n" +
	"• استلمت المرتب 10000 جنيه\n" +
	"• حولت لأحمد 200 جنيه"

func newFailure(kind FailureKind, err error) *Failure {
	f := &Failure{Kind: kind, Err: err}
	switch kind {
	case FailureConfig:
		f.UserMessage = "خدمة فهم الرسائل غير مهيأة حالياً. راجع إعدادات البوت."
	case FailureTransport:
		f.UserMessage = "تعذر الوصول لخدمة فهم الرسائل. حاول مرة أخرى بعد قليل."
	default:
		f.UserMessage = rephraseGuidance
	}
	return f
}
