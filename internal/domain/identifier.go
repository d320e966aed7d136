/**
 * @description
 * Account identifier classification. An identifier is either the UUID of a
 * regular account row or the derived string "{application_type}-{application_id}"
 * addressing an approved account application as a pseudo-account.
 *
 * Every caller that interprets identifiers (resolver, both orchestrators,
 * the ledger reader) goes through ClassifyAccountIdentifier so the rule
 * lives in exactly one place.
 */

package domain

import (
	"fmt"
	"strings"
)

// IdentifierSeparator joins the application type and id in a derived identifier.
const IdentifierSeparator = "-"

// NoAccountSentinel marks a transaction side that has no account attached.
const NoAccountSentinel = "N/A"

// ApplicationTypes enumerates the account-application products. Order
// matters for CheckingApplicationTypes below.
var ApplicationTypes = []string{
	"basic_checking",
	"premium_checking",
	"student_checking",
	"basic_savings",
	"premium_savings",
}

// CheckingApplicationTypes is the precedence order used when discovering a
// send-money recipient's derived checking destination. First match wins.
var CheckingApplicationTypes = []string{
	"basic_checking",
	"premium_checking",
	"student_checking",
}

// IsApplicationType reports whether s is a known application product.
func IsApplicationType(s string) bool {
	for _, t := range ApplicationTypes {
		if s == t {
			return true
		}
	}
	return false
}

// AccountRef is the classified form of an account identifier.
type AccountRef struct {
	Kind            AccountKind
	ID              string // regular account id, or the application id
	ApplicationType string // set only for derived refs
}

// ClassifyAccountIdentifier classifies an identifier as regular or derived.
// A derived identifier splits on the first separator into (type, id); the
// application id is itself a UUID and contains separators, so everything
// after the first boundary is rejoined as the id. Regular account ids are
// UUIDs and therefore also contain the separator, which is why the prefix
// must be a known application type for the identifier to classify as
// derived. Returns ok=false for empty identifiers and the no-account
// sentinel.
func ClassifyAccountIdentifier(identifier string) (AccountRef, bool) {
	id := strings.TrimSpace(identifier)
	if id == "" || strings.Contains(id, NoAccountSentinel) {
		return AccountRef{}, false
	}

	if prefix, rest, found := strings.Cut(id, IdentifierSeparator); found {
		if IsApplicationType(prefix) && rest != "" {
			return AccountRef{Kind: KindDerived, ID: rest, ApplicationType: prefix}, true
		}
	}

	return AccountRef{Kind: KindRegular, ID: id}, true
}

// DerivedIdentifier reconstructs the canonical identifier for an approved
// application. It is the inverse of ClassifyAccountIdentifier for derived refs.
func DerivedIdentifier(applicationType, applicationID string) string {
	return applicationType + IdentifierSeparator + applicationID
}

// DerivedAccountNumber builds the display account number for a
// pseudo-account by truncating and upper-casing the type and id.
func DerivedAccountNumber(applicationType, applicationID string) string {
	typePart := applicationType
	if cut, _, found := strings.Cut(typePart, "_"); found {
		typePart = cut
	}
	if len(typePart) > 3 {
		typePart = typePart[:3]
	}
	idPart := applicationID
	if cut, _, found := strings.Cut(idPart, IdentifierSeparator); found {
		idPart = cut
	}
	if len(idPart) > 8 {
		idPart = idPart[:8]
	}
	return fmt.Sprintf("%s-%s", strings.ToUpper(typePart), strings.ToUpper(idPart))
}
