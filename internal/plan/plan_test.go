package plan

import "testing"

func TestNormalize_KnownSlugs(t *testing.T) {
	for _, slug := range Slugs() {
		if got := Normalize(slug); got != slug {
			t.Errorf("Normalize(%q) = %q, want %q", slug, got, slug)
		}
	}
}

func TestNormalize_CaseAndWhitespace(t *testing.T) {
	if got := Normalize("  GOLD "); got != SlugGold {
		t.Errorf("Normalize = %q, want %q", got, SlugGold)
	}
}

// 未知のスラッグは必ずfounding-memberに正規化される
func TestNormalize_UnknownFallsBackToDefault(t *testing.T) {
	for _, slug := range []string{"", "platinum", "founding_member", "???"} {
		if got := Normalize(slug); got != SlugFoundingMember {
			t.Errorf("Normalize(%q) = %q, want %q", slug, got, SlugFoundingMember)
		}
	}
}

// 正規化してから特典テーブルを引いた結果が未定義にならないこと
func TestLookup_AlwaysResolves(t *testing.T) {
	inputs := append(Slugs(), "", "unknown-plan", "FOUNDING-MEMBER")
	for _, slug := range inputs {
		p := Lookup(slug)
		if p.Slug == "" {
			t.Errorf("Lookup(%q) returned zero plan", slug)
		}
		if len(p.Benefits) == 0 {
			t.Errorf("Lookup(%q) returned no benefits", slug)
		}
	}
}

func TestLookup_DefaultIsFoundingMember(t *testing.T) {
	p := Lookup("does-not-exist")
	if p.Slug != SlugFoundingMember {
		t.Errorf("Lookup default slug = %q, want %q", p.Slug, SlugFoundingMember)
	}
	if p.Name != "Founding Member" {
		t.Errorf("Lookup default name = %q", p.Name)
	}
}
