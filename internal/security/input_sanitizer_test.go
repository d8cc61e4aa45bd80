package security

import "testing"

func TestInputSanitizer_SanitizeText(t *testing.T) {
	s := NewInputSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "Water damage restoration, 12 trucks",
			want:  "Water damage restoration, 12 trucks",
		},
		{
			name:  "script tag removed",
			input: `before<script>alert("x")</script>after`,
			want:  "beforeafter",
		},
		{
			name:  "all markup stripped",
			input: `<p>hello <strong>world</strong></p>`,
			want:  "hello world",
		},
		{
			name:  "event handler removed",
			input: `<img src="x" onerror="alert(1)">text`,
			want:  "text",
		},
		{
			name:  "whitespace trimmed",
			input: "  padded  ",
			want:  "padded",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeText(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInputSanitizer_SanitizeNote(t *testing.T) {
	s := NewInputSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "paragraph and emphasis kept",
			input: "<p>Called the member, <strong>voicemail</strong></p>",
			want:  "<p>Called the member, <strong>voicemail</strong></p>",
		},
		{
			name:  "script removed from note",
			input: "<p>ok</p><script>bad()</script>",
			want:  "<p>ok</p>",
		},
		{
			name:  "links stripped to text",
			input: `<a href="https://example.com">site</a>`,
			want:  "site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeNote(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeNote(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 冪等性: 一度サニタイズした出力を再度通しても変化しないこと
func TestInputSanitizer_Idempotent(t *testing.T) {
	s := NewInputSanitizer()

	input := `<div>mixed <em>content</em><script>x</script></div>`
	once := s.SanitizeText(input)
	twice := s.SanitizeText(once)
	if once != twice {
		t.Errorf("SanitizeText not idempotent: %q != %q", once, twice)
	}
}
