package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// Shebang is the first line of every rendered configuration.
const Shebang = "#!/usr/local/sbin/tac_plus-ng"

// mavisExec is the MAVIS backend script the external module runs.
const mavisExec = "/usr/local/lib/mavis/mavis_tacplus-ng_ldap.pl"

// Render serializes a snapshot into tac_plus-ng script syntax. It is a
// pure function: the same snapshot always yields byte-identical output.
// Entities are emitted in lexical key order so diffs between versions
// track actual changes.
func Render(snap *Snapshot) (string, error) {
	if snap.Setting == nil {
		return "", apperr.New(apperr.CodeRender, "daemon settings are not configured")
	}
	if err := checkReferences(snap); err != nil {
		return "", err
	}

	var b strings.Builder

	writeHeader(&b, snap.Setting)
	writeMavis(&b, snap.Mavis)
	writeBackends(&b, snap.Setting)
	writeHosts(&b, snap)
	writeGroups(&b, snap)
	writeUsers(&b, snap)
	writeProfiles(&b, snap.Profiles)
	writeRulesets(&b, snap.Rulesets)

	b.WriteString("}\n")

	return b.String(), nil
}

func writeHeader(b *strings.Builder, s *models.NgSetting) {
	fmt.Fprintf(b, "%s\n", Shebang)
	b.WriteString("id = spawnd {\n")
	b.WriteString("    listen = {\n")
	fmt.Fprintf(b, "        address = %s\n", s.IPv4Address)
	fmt.Fprintf(b, "        port = %d\n", s.IPv4Port)
	b.WriteString("    }\n")
	if s.IPv6Enabled {
		b.WriteString("    listen = {\n")
		fmt.Fprintf(b, "        address = %s\n", s.IPv6Address)
		fmt.Fprintf(b, "        port = %d\n", s.IPv6Port)
		b.WriteString("    }\n")
	}
	b.WriteString("    spawn = {\n")
	fmt.Fprintf(b, "        instances min = %d\n", s.InstancesMin)
	fmt.Fprintf(b, "        instances max = %d\n", s.InstancesMax)
	b.WriteString("    }\n")
	fmt.Fprintf(b, "    background = %s\n", s.Background)
	b.WriteString("}\n")
	b.WriteString("id = tac_plus-ng {\n")
	fmt.Fprintf(b, "    log accesslog { destination = %s }\n", s.AccessLog)
	fmt.Fprintf(b, "    log authenticationlog { destination = %s }\n", s.AuthenticationLog)
	fmt.Fprintf(b, "    log authorizationlog { destination = %s }\n", s.AuthorizationLog)
	fmt.Fprintf(b, "    log accountinglog { destination = %s }\n", s.AccountingLog)
	b.WriteString("\n")
	b.WriteString("    access log = accesslog\n")
	b.WriteString("    authentication log = authenticationlog\n")
	b.WriteString("    authorization log = authorizationlog\n")
	b.WriteString("    accounting log = accountinglog\n")
	b.WriteString("\n")
}

func writeMavis(b *strings.Builder, entries []models.Mavis) {
	sorted := make([]models.Mavis, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MavisKey < sorted[j].MavisKey })

	b.WriteString("    mavis module = external {\n")
	for _, m := range sorted {
		fmt.Fprintf(b, "        setenv %s = \"%s\"\n", m.MavisKey, m.MavisValue)
	}
	fmt.Fprintf(b, "        exec = %s\n", mavisExec)
	b.WriteString("    }\n")
	b.WriteString("\n")
}

func writeBackends(b *strings.Builder, s *models.NgSetting) {
	fmt.Fprintf(b, "    login backend = %s\n", s.LoginBackend)
	fmt.Fprintf(b, "    user backend = %s\n", s.UserBackend)
	fmt.Fprintf(b, "    pap backend = %s\n", s.PAPBackend)
}

// optionFor returns the operator-supplied snippet injected ahead of the
// named section, or "" when none is configured.
func optionFor(snap *Snapshot, name string) string {
	for _, o := range snap.Options {
		if o.Name == name {
			return o.ConfigOption
		}
	}
	return ""
}

func writeSectionOption(b *strings.Builder, snap *Snapshot, name string) {
	if opt := optionFor(snap, name); opt != "" {
		fmt.Fprintf(b, "    %s\n", opt)
	}
}

func writeHosts(b *strings.Builder, snap *Snapshot) {
	b.WriteString("\n")
	writeSectionOption(b, snap, "host")

	sorted := make([]models.Host, len(snap.Hosts))
	copy(sorted, snap.Hosts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, h := range sorted {
		fmt.Fprintf(b, "    host = %s {\n", h.Name)
		if h.IPv4Address != "" {
			fmt.Fprintf(b, "        address = %s\n", h.IPv4Address)
		}
		if h.IPv6Address != "" {
			fmt.Fprintf(b, "        address = %s\n", h.IPv6Address)
		}
		fmt.Fprintf(b, "        key = \"%s\"\n", h.SecretKey)
		if h.Parent != "" {
			fmt.Fprintf(b, "        parent = %s\n", h.Parent)
		}
		if h.WelcomeBanner != "" {
			fmt.Fprintf(b, "        welcome banner = \"%s\"\n", h.WelcomeBanner)
		}
		if h.RejectBanner != "" {
			fmt.Fprintf(b, "        reject banner = \"%s\"\n", h.RejectBanner)
		}
		if h.MOTDBanner != "" {
			fmt.Fprintf(b, "        motd banner = \"%s\"\n", h.MOTDBanner)
		}
		if h.FailedAuthBanner != "" {
			fmt.Fprintf(b, "        failed authentication banner = \"%s\"\n", h.FailedAuthBanner)
		}
		b.WriteString("    }\n")
	}
}

func writeGroups(b *strings.Builder, snap *Snapshot) {
	b.WriteString("\n")
	writeSectionOption(b, snap, "group")

	sorted := make([]models.Group, len(snap.Groups))
	copy(sorted, snap.Groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GroupName < sorted[j].GroupName })

	for _, g := range sorted {
		fmt.Fprintf(b, "    group = %s\n", g.GroupName)
	}
}

func writeUsers(b *strings.Builder, snap *Snapshot) {
	b.WriteString("\n")
	writeSectionOption(b, snap, "user")

	sorted := make([]models.User, len(snap.Users))
	copy(sorted, snap.Users)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Username < sorted[j].Username })

	for _, u := range sorted {
		fmt.Fprintf(b, "    user %s {\n", u.Username)
		if u.PasswordType == models.PasswordTypeMavis {
			b.WriteString("        password login = mavis\n")
		} else {
			fmt.Fprintf(b, "        password login = %s %s\n", u.PasswordType, u.Password)
		}
		fmt.Fprintf(b, "        member = %s\n", u.Member)
		b.WriteString("    }\n")
	}
}

// writeProfiles emits profile blocks. Profiles with no script clauses are
// skipped; they contribute nothing to the daemon's behavior.
func writeProfiles(b *strings.Builder, profiles []models.Profile) {
	sorted := make([]models.Profile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	b.WriteString("\n")
	for _, p := range sorted {
		if len(p.Scripts) == 0 {
			continue
		}
		fmt.Fprintf(b, "    profile %s {\n", p.Name)
		b.WriteString("        script {\n")
		for _, s := range p.Scripts {
			fmt.Fprintf(b, "            %s (%s == %s) {\n", s.Condition, s.Key, s.Value)
			for _, set := range s.Sets {
				fmt.Fprintf(b, "                set %s = %s\n", set.Key, set.Value)
			}
			fmt.Fprintf(b, "                %s\n", s.Action)
			b.WriteString("            }\n")
		}
		fmt.Fprintf(b, "            %s\n", p.Action)
		b.WriteString("        }\n")
		b.WriteString("    }\n")
	}
}

// writeRulesets emits the single ruleset block holding all rules.
func writeRulesets(b *strings.Builder, rulesets []models.Ruleset) {
	sorted := make([]models.Ruleset, len(rulesets))
	copy(sorted, rulesets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	b.WriteString("\n")
	b.WriteString("    ruleset {\n")
	for _, r := range sorted {
		if len(r.Scripts) == 0 {
			continue
		}
		fmt.Fprintf(b, "        rule %s {\n", r.Name)
		fmt.Fprintf(b, "            enabled = %s\n", r.Enabled)
		b.WriteString("            script {\n")
		for _, s := range r.Scripts {
			fmt.Fprintf(b, "                %s (%s == %s) {\n", s.Condition, s.Key, s.Value)
			for _, set := range s.Sets {
				fmt.Fprintf(b, "                    %s = %s\n", set.Key, set.Value)
			}
			fmt.Fprintf(b, "                    %s\n", s.Action)
			b.WriteString("                }\n")
		}
		fmt.Fprintf(b, "                %s\n", r.Action)
		b.WriteString("            }\n")
		b.WriteString("        }\n")
	}
	b.WriteString("    }\n")
}
