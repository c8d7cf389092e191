package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/ticketing"
)

// identityCacheTTL bounds how long a resolved author identity may be reused
// before the allow-lists are consulted again.
const identityCacheTTL = 5 * time.Minute

// SegmentationRules is the compiled form of the segmentation configuration.
// Allow-lists are lowered once at construction so per-conversation matching
// is a plain map lookup, and resolved author identities are memoized in an
// injected cache shared across conversations.
type SegmentationRules struct {
	escalationEmails map[string]bool
	escalationNames  map[string]bool
	vendors          []config.Vendor
	identities       *IdentityCache
}

// NewSegmentationRules compiles the configured allow-lists.
func NewSegmentationRules(cfg config.Segmentation) SegmentationRules {
	r := SegmentationRules{
		escalationEmails: make(map[string]bool),
		escalationNames:  make(map[string]bool),
		vendors:          cfg.Vendors,
		identities:       NewIdentityCache(identityCacheTTL),
	}
	for _, entry := range cfg.EscalationStaff {
		e := strings.ToLower(strings.TrimSpace(entry))
		if e == "" {
			continue
		}
		if strings.Contains(e, "@") {
			r.escalationEmails[e] = true
		} else {
			r.escalationNames[e] = true
		}
	}
	return r
}

// identify resolves one human-agent author against the allow-lists, through
// the identity cache.
func (r SegmentationRules) identify(m ticketing.Message) Identity {
	key := strings.ToLower(m.AuthorEmail) + "\x00" + strings.ToLower(m.AuthorName)
	return r.identities.Resolve(key, func() Identity {
		if r.escalationEmails[strings.ToLower(m.AuthorEmail)] {
			return Identity{Kind: IdentityEscalation, Detail: fmt.Sprintf("allow-listed email %s", m.AuthorEmail)}
		}
		if m.AuthorName != "" && r.escalationNames[strings.ToLower(m.AuthorName)] {
			return Identity{Kind: IdentityEscalation, Detail: fmt.Sprintf("allow-listed name %q", m.AuthorName)}
		}
		domain := emailDomain(m.AuthorEmail)
		if domain != "" {
			for _, v := range r.vendors {
				if domainMatches(domain, v.Domain) {
					return Identity{Kind: IdentityVendor, Vendor: v.Name, Detail: fmt.Sprintf("domain %s", domain)}
				}
			}
		}
		return Identity{Kind: IdentityNone}
	})
}

// ClassifyTier applies the priority-ordered tier rules, first match wins:
// escalation allow-list, vendor domain, automated-only, unknown. Participation
// is derived strictly from message authorship; the routing assignment field
// is never consulted.
func ClassifyTier(conv *ticketing.Conversation, rules SegmentationRules) (Tier, string) {
	human := conv.HumanAgentMessages()
	identities := make([]Identity, len(human))
	for i, m := range human {
		identities[i] = rules.identify(m)
	}

	// Rule 1: escalation staff participated. Checked across all human
	// messages before any vendor match so escalation always wins.
	for _, id := range identities {
		if id.Kind == IdentityEscalation {
			return TierEscalated, "escalation rule: human-agent message from " + id.Detail
		}
	}

	// Rule 2: vendor team participated, identified by email domain.
	for _, id := range identities {
		if id.Kind == IdentityVendor {
			return VendorTier(id.Vendor), fmt.Sprintf("vendor rule: human-agent message from %s (vendor %s)", id.Detail, id.Vendor)
		}
	}

	// Rule 3: automated agent participated and no human agent replied.
	if conv.HasAutomatedAgentMessage() && !conv.HasHumanAgentMessage() {
		return TierAutomatedOnly, "automated-only rule: automated agent participated, no human-agent message present"
	}

	return TierUnknown, "no rule matched: no allow-listed staff, vendor domain, or automated-only evidence"
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// domainMatches reports whether the message domain is the vendor domain or a
// subdomain of it. Suffix matching is on label boundaries so vendor.co never
// matches notvendor.co.
func domainMatches(domain, vendorDomain string) bool {
	if vendorDomain == "" {
		return false
	}
	if domain == vendorDomain {
		return true
	}
	return strings.HasSuffix(domain, "."+vendorDomain)
}
