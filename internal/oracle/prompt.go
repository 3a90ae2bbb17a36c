package oracle

import (
	"context"
	"strings"

	"github.com/divantrade/masareef/internal/categories"
)

// buildPrompt assembles the interpretation prompt: the role and output
// contract, the four category vocabulary blocks read live from the
// registry, and the message itself. A registry read failure degrades to the
// fixed fallback vocabulary rather than failing the message.
func buildPrompt(ctx context.Context, registry categories.Registry, text, senderName string) string {
	var vocab []categories.Category
	if registry != nil {
		rows, err := registry.ListActiveCategories(ctx)
		if err == nil {
			vocab = rows
		}
	}

	var b strings.Builder
	b.WriteString("أنت مساعد مالي لعائلة. حلل الرسالة التالية واستخرج المعاملات المالية منها.\n\n")

	writeVocabBlock(&b, "تصنيفات الدخل", categories.Names(vocab, categories.GroupIncome))
	writeVocabBlock(&b, "تصنيفات المصروفات", categories.Names(vocab, categories.GroupExpense))
	writeVocabBlock(&b, "تصنيفات التحويلات", categories.Names(vocab, categories.GroupTransfer))
	writeVocabBlock(&b, "تصنيفات العهدة", categories.Names(vocab, categories.GroupCustody))

	b.WriteString("أجب بكائن JSON واحد فقط بهذا الشكل، بدون أي نص آخر وبدون Markdown:\n")
	b.WriteString(`{"success": true, "message": "نص تأكيد اختياري", "transactions": [` + "\n")
	b.WriteString(`  {"type": "income|expense|transfer|custody_deposit|custody_withdrawal|gold_purchase|loan_taken|loan_repaid",` + "\n")
	b.WriteString(`   "amount": 0, "currency": "EGP|SAR|USD", "category": "من التصنيفات أعلاه",` + "\n")
	b.WriteString(`   "contact": "اسم الطرف الآخر أو فارغ", "description": "وصف قصير",` + "\n")
	b.WriteString(`   "amount_received": 0, "exchange_rate": 0, "gold_weight": 0, "gold_karat": 0}` + "\n")
	b.WriteString("]}\n\n")
	b.WriteString("قواعد:\n")
	b.WriteString("- المفاتيح مقبولة بالعربية أيضاً (نجاح، رسالة، معاملات، نوع، مبلغ، عملة، تصنيف، جهة، وصف، مبلغ_مستلم، سعر_الصرف، وزن_الذهب، عيار_الذهب).\n")
	b.WriteString("- المبالغ أرقام موجبة. احذف الحقول الاختيارية غير الموجودة في الرسالة.\n")
	b.WriteString("- إن لم تكن الرسالة معاملة مالية أو كانت ناقصة، أعد success=false مع سؤال توضيحي في message.\n\n")

	b.WriteString("المرسل: " + senderName + "\n")
	b.WriteString("الرسالة: " + text + "\n")

	return b.String()
}

func writeVocabBlock(b *strings.Builder, title string, names []string) {
	b.WriteString(title + ":\n")
	for _, n := range names {
		b.WriteString("  - " + n + "\n")
	}
	b.WriteString("\n")
}
