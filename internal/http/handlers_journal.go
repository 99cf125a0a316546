package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"salestree/internal/core"
	"salestree/internal/importer"
	"salestree/internal/journal"
)

// transactionPayload is the wire form of a journal row.
type transactionPayload struct {
	ID            string             `json:"id,omitempty"`
	DocDate       core.Date          `json:"doc_date"`
	DocNo         string             `json:"doc_no,omitempty"`
	DocType       core.DocType       `json:"doc_type"`
	Counterparty  string             `json:"counterparty"`
	Description   string             `json:"description"`
	Category      string             `json:"category,omitempty"`
	GLCode        string             `json:"gl_code,omitempty"`
	AmountNet     decimal.Decimal    `json:"amount_net"`
	VATAmount     decimal.Decimal    `json:"vat_amount"`
	AmountGross   decimal.Decimal    `json:"amount_gross"`
	PaymentMethod core.PaymentMethod `json:"payment_method"`
	BankAccount   string             `json:"bank_account,omitempty"`
	Status        core.Status        `json:"status"`
	PaymentDate   core.Date          `json:"payment_date,omitempty"`
}

func toPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:            t.ID,
		DocDate:       t.DocDate,
		DocNo:         t.DocNo,
		DocType:       t.DocType,
		Counterparty:  t.Counterparty,
		Description:   t.Description,
		Category:      t.Category,
		GLCode:        t.GLCode,
		AmountNet:     t.AmountNet,
		VATAmount:     t.VATAmount,
		AmountGross:   t.AmountGross,
		PaymentMethod: t.PaymentMethod,
		BankAccount:   t.BankAccount,
		Status:        t.Status,
		PaymentDate:   t.PaymentDate,
	}
}

func (p transactionPayload) toTransaction() core.Transaction {
	return core.Transaction{
		ID:            p.ID,
		DocDate:       p.DocDate,
		DocNo:         p.DocNo,
		DocType:       p.DocType,
		Counterparty:  strings.TrimSpace(p.Counterparty),
		Description:   strings.TrimSpace(p.Description),
		Category:      strings.TrimSpace(p.Category),
		GLCode:        strings.TrimSpace(p.GLCode),
		AmountNet:     p.AmountNet,
		VATAmount:     p.VATAmount,
		AmountGross:   p.AmountGross,
		PaymentMethod: p.PaymentMethod,
		BankAccount:   strings.TrimSpace(p.BankAccount),
		Status:        p.Status,
		PaymentDate:   p.PaymentDate,
	}
}

func toPayloads(txs []core.Transaction) []transactionPayload {
	out := make([]transactionPayload, len(txs))
	for i, t := range txs {
		out[i] = toPayload(t)
	}
	return out
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.loadJournal(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Journal load error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}

	txs = core.FilterTransactions(txs, filter)
	txs = searchTransactions(txs, r.URL.Query().Get("q"))

	writeJSON(w, http.StatusOK, struct {
		Transactions []transactionPayload `json:"transactions"`
		Count        int                  `json:"count"`
	}{toPayloads(txs), len(txs)})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t := payload.toTransaction().Normalized()
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.Insert(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction insert error", "error", err,
			"counterparty", t.Counterparty)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.invalidateJournal()
	t.ID = id
	writeJSON(w, http.StatusCreated, toPayload(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	t, err := s.getTransaction(r, id)
	if errors.Is(err, journal.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction get error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}

	writeJSON(w, http.StatusOK, toPayload(t))
}

// getTransaction uses the store's Get when available and falls back to
// scanning the journal otherwise.
func (s *Server) getTransaction(r *http.Request, id string) (core.Transaction, error) {
	if getter, ok := s.store.(journal.Getter); ok {
		return getter.Get(r.Context(), id)
	}

	txs, err := s.loadJournal(r.Context())
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, journal.ErrNotFound
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t := payload.toTransaction().Normalized()
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	err := s.store.Update(r.Context(), id, t)
	if errors.Is(err, journal.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction update error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}

	s.invalidateJournal()
	t.ID = id
	writeJSON(w, http.StatusOK, toPayload(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, journal.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction delete error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.invalidateJournal()
	w.WriteHeader(http.StatusNoContent)
}

// handleImport ingests a CSV body. mode=replace swaps the whole journal,
// the default appends row by row. Skipped rows come back in the response
// rather than failing the upload.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	reader := csv.NewReader(r.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid CSV body: "+err.Error())
		return
	}

	result, err := importer.Parse(records, core.Today())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	replace := r.URL.Query().Get("mode") == "replace"
	if replace {
		if err := s.store.ReplaceAll(r.Context(), result.Transactions); err != nil {
			slog.ErrorContext(r.Context(), "Journal replace error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to replace journal")
			return
		}
	} else {
		for _, t := range result.Transactions {
			if _, err := s.store.Insert(r.Context(), t); err != nil {
				slog.ErrorContext(r.Context(), "Imported row insert error", "error", err,
					"counterparty", t.Counterparty)
				writeError(w, http.StatusInternalServerError, "failed to save imported rows")
				return
			}
		}
	}

	s.invalidateJournal()

	skipped := make([]string, len(result.Skipped))
	for i, rowErr := range result.Skipped {
		skipped[i] = rowErr.Error()
	}
	writeJSON(w, http.StatusOK, struct {
		Imported int      `json:"imported"`
		Skipped  []string `json:"skipped"`
		Replaced bool     `json:"replaced"`
	}{len(result.Transactions), skipped, replace})
}
