// Package ofx reads OFX/QFX bank and credit card statements into ledger
// transactions for a single account.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX file parsing. A Parser remembers every FITID it
// has seen, so entries repeated across the files of one import are kept
// once. It is not safe for concurrent use.
type Parser struct {
	now  func() time.Time
	seen map[ofxgo.String]bool
}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{now: time.Now, seen: make(map[ofxgo.String]bool)}
}

// Result is the outcome of reading one statement file.
type Result struct {
	Transactions []model.Transaction
	// Statements is the number of bank and credit card statements found.
	Statements int
	// Zero counts entries skipped because their amount was zero.
	Zero int
	// Duplicates counts entries skipped because their FITID repeated.
	Duplicates int
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports leave an opening tag without its closing bracket at
	// the end of a line.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile reads every statement in an OFX/QFX file and converts its
// entries into transactions on accountID. Credits become gifts with money
// in, debits become expenses with money out, and zero amounts are skipped.
// Entries whose FITID appeared earlier in this file or in a previous call
// are counted as duplicates.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader, accountID string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	createdAt := p.now().UTC()

	add := func(list *ofxgo.TransactionList) {
		if list == nil {
			return
		}
		for _, ofxTx := range list.Transactions {
			if ofxTx.FiTID != "" {
				if p.seen[ofxTx.FiTID] {
					result.Duplicates++
					continue
				}
				p.seen[ofxTx.FiTID] = true
			}
			txn, ok := p.convertTransaction(ofxTx, accountID)
			if !ok {
				result.Zero++
				continue
			}
			txn.CreatedAt = createdAt
			result.Transactions = append(result.Transactions, txn)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			result.Statements++
			add(stmt.BankTranList)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			result.Statements++
			add(stmt.BankTranList)
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(result.Transactions),
		"statements", result.Statements,
		"zero_amount", result.Zero,
		"duplicates", result.Duplicates)

	return result, nil
}

// convertTransaction maps one statement entry. It reports false for zero
// amounts.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) (model.Transaction, bool) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(4))
	if err != nil || amount.IsZero() {
		return model.Transaction{}, false
	}

	txn := model.Transaction{
		ID:             uuid.NewString(),
		Date:           model.CalendarDate(ofxTx.DtPosted.Time),
		CustomerVendor: p.extractMerchantName(ofxTx),
		AccountID:      accountID,
		Notes:          notes(ofxTx),
	}
	if txn.CustomerVendor == "" {
		txn.CustomerVendor = "N/A"
	}

	// OFX signs debits negative.
	if amount.IsPositive() {
		txn.Type = model.TypeGift
		txn.MoneyIn = amount
	} else {
		txn.Type = model.TypeExpense
		txn.MoneyOut = amount.Neg()
	}
	return txn, true
}

func notes(tx ofxgo.Transaction) string {
	parts := []string{fmt.Sprintf("OFX %v", tx.TrnType)}
	if tx.CheckNum != "" {
		parts = append(parts, "check "+string(tx.CheckNum))
	}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" {
		parts = append(parts, memo)
	}
	return strings.Join(parts, " ")
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// PAYEE is usually cleaner than NAME.
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " stamp.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// GetAccounts lists the statement account numbers found in the file.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	addAccount := func(id ofxgo.String) {
		if id == "" || seen[string(id)] {
			return
		}
		seen[string(id)] = true
		accounts = append(accounts, string(id))
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			addAccount(stmt.BankAcctFrom.AcctID)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			addAccount(stmt.CCAcctFrom.AcctID)
		}
	}

	return accounts, nil
}
