// Package receipt renders a transaction as a 32-column plain-text receipt for
// thermal printers.
package receipt

import (
	"strconv"
	"strings"

	"frendo-pos/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const Width = 32

var rupiah = message.NewPrinter(language.Indonesian)

// Store is the header printed on every receipt.
type Store struct {
	Name    string
	Address string
	Phone   string
}

// Render expects t with User and Items.Product loaded. A transaction whose cashier
// profile was deleted is printed as SYSTEM.
func Render(store Store, t *model.Transaction) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(center(strings.ToUpper(store.Name)))
	line(center(store.Address))
	line(center("WA: " + store.Phone))
	line(strings.Repeat("=", Width))

	cashier := "SYSTEM"
	if t.User != nil && t.User.Name != "" {
		cashier = t.User.Name
	}
	id := t.ID.String()
	line(clip("TGL : " + t.CreatedAt.Format("02/01/2006 15.04.05")))
	line("ID  : #" + strings.ToUpper(id[:8]))
	line(clip("KSR : " + strings.ToUpper(cashier)))
	line(strings.Repeat("-", Width))

	for _, it := range t.Items {
		name := "-"
		if it.Product != nil {
			name = it.Product.Name
		}
		line(clip(strings.ToUpper(name)))
		line(spread(strconv.Itoa(it.Quantity)+" x "+Number(it.Price), Number(it.Subtotal)))
	}

	line(strings.Repeat("-", Width))
	line(spread("TOTAL", Currency(t.TotalPrice)))
	line(spread("BAYAR", Currency(t.Payment)))
	line(spread("KEMBALI", Currency(t.ChangeAmount)))
	line("")
	line(center("TERIMA KASIH"))
	line(center("BARANG YANG SUDAH DIBELI"))
	line(center("TIDAK DAPAT DITUKAR/DIKEMBALIKAN"))
	return b.String()
}

// Currency formats an amount the Indonesian way: Rp 1.250.000 or Rp 10.493,25.
func Currency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-Rp " + Number(d.Neg())
	}
	return "Rp " + Number(d)
}

// Number formats with the id locale: '.' groups thousands, ',' precedes the at most
// two decimals.
func Number(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	if d.IsInteger() {
		return sign + rupiah.Sprintf("%d", d.IntPart())
	}
	fixed := strings.TrimRight(d.StringFixed(2), "0")
	decimals := len(fixed) - strings.IndexByte(fixed, '.') - 1
	return sign + rupiah.Sprintf("%."+strconv.Itoa(decimals)+"f", d.InexactFloat64())
}

func clip(s string) string {
	if r := []rune(s); len(r) > Width {
		return string(r[:Width])
	}
	return s
}

func center(s string) string {
	s = clip(s)
	pad := (Width - len([]rune(s))) / 2
	return strings.Repeat(" ", pad) + s
}

// spread puts left and right on one line, at least one space apart.
func spread(left, right string) string {
	gap := Width - len([]rune(left)) - len([]rune(right))
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
