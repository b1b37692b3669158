package command

import (
	"strconv"
	"time"

	"checkpay/internal/domain"
	"checkpay/internal/session"
)

type statusView struct {
	State    string `json:"state" yaml:"state"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	UserID   string `json:"userId,omitempty" yaml:"userId,omitempty"`
	Backend  string `json:"backend" yaml:"backend"`
}

func newStatusView(m *session.Manager, backendURL string) statusView {
	v := statusView{State: m.State().String(), Backend: backendURL}
	if sess, ok := m.Current(); ok {
		v.Username = sess.Username
		v.UserID = sess.UserID
	}
	return v
}

func (v statusView) Header() []string {
	return []string{"STATE", "USERNAME", "USER ID", "BACKEND"}
}

func (v statusView) Rows() [][]string {
	return [][]string{{v.State, orDash(v.Username), orDash(v.UserID), v.Backend}}
}

type receiptView struct {
	ID           string `json:"id" yaml:"id"`
	BusinessName string `json:"businessName" yaml:"businessName"`
	QuantitySold string `json:"quantitySold" yaml:"quantitySold"`
	Timestamp    string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func newReceiptView(r domain.PaymentReceipt) receiptView {
	v := receiptView{
		ID:           r.ID,
		BusinessName: r.BusinessName,
		QuantitySold: strconv.FormatFloat(r.QuantitySold, 'f', -1, 64),
	}
	if !r.Timestamp.IsZero() {
		v.Timestamp = r.Timestamp.UTC().Format(time.RFC3339)
	}
	return v
}

// historyView lista los pagos del usuario, del mas reciente al mas viejo.
type historyView []receiptView

func newHistoryView(receipts []domain.PaymentReceipt) historyView {
	out := make(historyView, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, newReceiptView(r))
	}
	return out
}

func (h historyView) Header() []string {
	return []string{"ID", "BUSINESS", "QUANTITY", "TIMESTAMP"}
}

func (h historyView) Rows() [][]string {
	rows := make([][]string, 0, len(h))
	for _, r := range h {
		rows = append(rows, []string{r.ID, r.BusinessName, r.QuantitySold, orDash(r.Timestamp)})
	}
	return rows
}

type healthView struct {
	Backend   string `json:"backend" yaml:"backend"`
	Status    string `json:"status" yaml:"status"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func (v healthView) Header() []string {
	return []string{"BACKEND", "STATUS", "TIMESTAMP"}
}

func (v healthView) Rows() [][]string {
	return [][]string{{v.Backend, v.Status, orDash(v.Timestamp)}}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
