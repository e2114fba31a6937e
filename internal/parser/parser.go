// Package parser implements the expense input grammar and command surface of
// spec §6: regexes turn chat-style text into structured commands the engine
// (money/ledger/expense/settlement/group) can execute, and malformed input is
// dropped silently (spec §7).
package parser

import (
	"regexp"
	"strings"

	"github.com/arnavp/treasurer/internal/money"
)

// Kind identifies which command one line of input parsed to. A Command's
// Kind determines which of its fields are populated; fields irrelevant to
// Kind are left zero.
type Kind int

const (
	KindInvalid Kind = iota
	KindBalance
	KindHistory
	KindCreateGroup
	KindAddMember
	KindDeleteMember
	KindExpense
)

// Participant is one parsed participant of an expense line, prior to group
// expansion (a participant handle may name a user directly or a group whose
// members all participate; spec §6 leaves group-vs-user disambiguation to the
// caller since both handles share the same grammar shape at this layer only
// by accident of length — group handles are 3-12 letters, user handles are
// exactly 2).
type Participant struct {
	Handle  string
	PlusMod *money.Money
	StarMod *money.Money
}

// Command is the parsed result of one line of input.
type Command struct {
	Kind Kind

	// KindCreateGroup, KindAddMember, KindDeleteMember
	Group string
	User  string

	// KindExpense
	Amount       money.Money
	Description  string
	Participants []Participant
}

var (
	amountPattern  = `[0-9]+(?:\.[0-9]{1,2})?`
	plusModPattern = `\+[0-9]+(?:\.[0-9]{1,2})?`
	starModPattern = `\*[0-9]+(?:\.[0-9])?`

	handlePattern = `[A-Z]{2}`

	amountRegex  = regexp.MustCompile(`^` + amountPattern + `$`)
	plusModRegex = regexp.MustCompile(`^` + plusModPattern + `$`)
	starModRegex = regexp.MustCompile(`^` + starModPattern + `$`)
	handleRegex  = regexp.MustCompile(`^` + handlePattern + `$`)

	// participantRegex captures a handle (user or group) followed by an
	// optional modifier in either order (spec §6, "Modifier: either order of
	// optional PlusMod and optional StarMod"). Handles are uppercase-only per
	// spec §6; a 2-letter handle names a user, 3-12 letters names a group.
	participantRegex = regexp.MustCompile(
		`^([A-Z]{2,12})(?:(` + plusModPattern + `)(` + starModPattern + `)?|(` + starModPattern + `)(` + plusModPattern + `)?)?$`,
	)

	createRegex = regexp.MustCompile(`^CREATE\s+([A-Z]{3,12})$`)
	addRegex    = regexp.MustCompile(`^ADD\s+([A-Z]{2})\s+([A-Z]{3,12})$`)
	deleteRegex = regexp.MustCompile(`^DELETE\s+([A-Z]{2})\s+([A-Z]{3,12})$`)

	// expenseRegex splits AMOUNT|PARTICIPANTS( "DESCRIPTION")? into its three
	// groups. Description allows escaped quotes (spec §6); capture it raw and
	// unescape separately.
	expenseRegex = regexp.MustCompile(`^(` + amountPattern + `)\|([^"]+?)(?:\s+"((?:[^"\\]|\\.)*)")?$`)
)

// Parse dispatches one line of input to its command form. Malformed or
// unrecognized input returns KindInvalid; callers must drop it silently
// (spec §7, "Unrecognized input is silently ignored").
func Parse(line string) Command {
	line = strings.TrimSpace(line)

	switch line {
	case "BALANCE":
		return Command{Kind: KindBalance}
	case "HISTORY":
		return Command{Kind: KindHistory}
	}

	if m := createRegex.FindStringSubmatch(line); m != nil {
		return Command{Kind: KindCreateGroup, Group: m[1]}
	}
	if m := addRegex.FindStringSubmatch(line); m != nil {
		return Command{Kind: KindAddMember, User: m[1], Group: m[2]}
	}
	if m := deleteRegex.FindStringSubmatch(line); m != nil {
		return Command{Kind: KindDeleteMember, User: m[1], Group: m[2]}
	}

	if cmd, ok := parseExpense(line); ok {
		return cmd
	}
	return Command{Kind: KindInvalid}
}

func parseExpense(line string) (Command, bool) {
	m := expenseRegex.FindStringSubmatch(line)
	if m == nil {
		return Command{}, false
	}
	amount, err := money.New(m[1])
	if err != nil {
		return Command{}, false
	}

	var participants []Participant
	for _, tok := range strings.Split(m[2], ",") {
		p, ok := parseParticipant(strings.TrimSpace(tok))
		if !ok {
			return Command{}, false
		}
		participants = append(participants, p)
	}
	if len(participants) == 0 {
		return Command{}, false
	}

	description := unescapeDescription(m[3])
	return Command{
		Kind:         KindExpense,
		Amount:       amount,
		Description:  description,
		Participants: participants,
	}, true
}

func parseParticipant(tok string) (Participant, bool) {
	m := participantRegex.FindStringSubmatch(tok)
	if m == nil {
		return Participant{}, false
	}
	p := Participant{Handle: m[1]}

	plus := m[2]
	star := m[3]
	if plus == "" && star == "" {
		star = m[4]
		plus = m[5]
	}
	if plus != "" {
		v, err := money.New(strings.TrimPrefix(plus, "+"))
		if err != nil {
			return Participant{}, false
		}
		p.PlusMod = &v
	}
	if star != "" {
		v, err := money.New(strings.TrimPrefix(star, "*"))
		if err != nil {
			return Participant{}, false
		}
		p.StarMod = &v
	}
	return p, true
}

func unescapeDescription(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.ReplaceAll(raw, `\"`, `"`)
}

// ValidAmount, ValidHandle, ValidPlusMod and ValidStarMod expose the grammar
// primitives for callers that need to validate a fragment outside a full
// command line. (The group package keeps its own copy of the handle regex.)
func ValidAmount(s string) bool  { return amountRegex.MatchString(s) }
func ValidHandle(s string) bool  { return handleRegex.MatchString(s) }
func ValidPlusMod(s string) bool { return plusModRegex.MatchString(s) }
func ValidStarMod(s string) bool { return starModRegex.MatchString(s) }
