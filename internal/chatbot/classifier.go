// Package chatbot implements the conversational front-end of the platform:
// a two-tier message responder. The Classifier in this file is the fast
// tier: an ordered table of intent predicates over lower-cased message
// text, each paired with a role-aware canned reply. The first matching rule
// wins; when none matches, the caller falls through to the generative
// Fallback.
//
// Classification is pure: no I/O, no randomness. Identical (message,
// context) pairs always produce the identical reply.
package chatbot

import (
	"strings"

	"github.com/foodshare/go-donation-backend/internal/domain"
)

// Context is the ephemeral requester identity attached to one chat message:
// display name and role, or the anonymous guest defaults.
type Context struct {
	Name string
	Role string
}

// GuestContext is the context used for unauthenticated requests.
func GuestContext() Context { return Context{Role: domain.RoleGuest} }

// DisplayName returns the requester's name, or "friend" for anonymous users.
func (c Context) DisplayName() string {
	if strings.TrimSpace(c.Name) == "" {
		return "friend"
	}
	return c.Name
}

// Rule pairs an intent predicate with its reply builder. Match receives the
// lower-cased message; Reply receives the requester context and must be
// deterministic.
type Rule struct {
	Intent string
	Match  func(msg string) bool
	Reply  func(c Context) string
}

// Classifier evaluates rules in declaration order.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier with the default intent table.
// Precedence matters: greetings before generic help, donation-specific
// intents before generic "how" queries.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules()}
}

// Classify returns the canned reply for the first matching intent, or
// ("", false) when no rule fires and the caller should defer to the
// fallback tier.
func (cl *Classifier) Classify(message string, c Context) (string, bool) {
	msg := strings.ToLower(message)
	for _, r := range cl.rules {
		if r.Match(msg) {
			return r.Reply(c), true
		}
	}
	return "", false
}

// hasPhrase builds a predicate matching any of the given substrings.
func hasPhrase(subs ...string) func(string) bool {
	return func(msg string) bool {
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

// hasWord builds a predicate matching any of the given whole words, so a
// short greeting like "hi" cannot fire inside "this".
func hasWord(words ...string) func(string) bool {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return func(msg string) bool {
		for _, tok := range strings.FieldsFunc(msg, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		}) {
			if _, ok := set[tok]; ok {
				return true
			}
		}
		return false
	}
}

// defaultRules is the platform intent table, evaluated top to bottom.
func defaultRules() []Rule {
	return []Rule{
		{
			Intent: "greeting",
			Match:  hasWord("hi", "hello", "hey", "greetings", "howdy"),
			Reply: func(c Context) string {
				return "Hello " + c.DisplayName() + "! 👋 I'm FoodBot. Ask me about donating food, becoming an agent, or how FoodShare works."
			},
		},
		{
			Intent: "donate",
			Match:  hasPhrase("donate", "give food"),
			Reply: func(c Context) string {
				switch c.Role {
				case domain.RoleDonor:
					return "Great! 🍲 Go to your Dashboard and click the Donate Food button to create a new request."
				case domain.RoleAgent:
					return "As an Agent, your role is to collect food. If you want to donate, you'll need to create a separate Donor account."
				case domain.RoleAdmin:
					return "Admins manage the system. To donate, please use a Donor account."
				default:
					return "To donate, you first need to Sign Up as a Donor. It only takes a minute! Click 'Sign Up' in the top right."
				}
			},
		},
		{
			Intent: "agent",
			Match:  hasPhrase("agent", "volunteer"),
			Reply: func(c Context) string {
				if c.Role == domain.RoleAgent {
					return "Thanks for being a hero! 🦸 Check your Dashboard for 'Pending Collections' to see donations assigned to you."
				}
				return "Agents are our superheroes! 🦸 They pick up food from donors and distribute it to the needy. Want to join? Sign up and choose 'Agent' as your role."
			},
		},
		{
			Intent: "how-it-works",
			Match:  hasPhrase("how it works", "how does it work", "how do you work", "what is foodshare"),
			Reply: func(c Context) string {
				return "FoodShare connects donors with volunteer agents: a donor submits a pledge, an admin approves it and assigns an agent, and the agent collects and delivers the food. Mission: Zero Hunger, Zero Waste."
			},
		},
		{
			Intent: "signup-login",
			Match:  hasPhrase("sign up", "signup", "register", "login", "log in", "create an account"),
			Reply: func(c Context) string {
				if c.Role == domain.RoleGuest || c.Role == "" {
					return "Click 'Sign Up' in the top right, pick your role (Donor or Agent), and verify your email with the code we send you. Already registered? Use 'Login'."
				}
				return "You're already signed in, " + c.DisplayName() + ". Head to your Dashboard to get started."
			},
		},
		{
			Intent: "support",
			Match:  hasPhrase("contact", "support", "complaint", "password", "bug"),
			Reply: func(c Context) string {
				return "For technical issues or account help, email support@foodshare.com and our team will get back to you."
			},
		},
	}
}
