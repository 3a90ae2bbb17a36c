package extract

import "fmt"

const ReasonNoAmount = "no-amount-found"

// Failure is a terminal parse failure for one message. UserMessage is sent
// to the chat as-is; the message is not retried.
type Failure struct {
	Reason      string
	UserMessage string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extract: %s", f.Reason)
}

func noAmountFailure() *Failure {
	return &Failure{
		Reason: ReasonNoAmount,
		UserMessage: "لم أجد مبلغاً في الرسالة. اكتب المبلغ بالأرقام، مثلاً:\n" +
			"• حولت لسارة 500 ريال عهدة\n" +
			"• عهدة 2000 جنيه",
	}
}
