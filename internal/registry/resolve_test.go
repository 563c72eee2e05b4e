package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"https", "https://github.com/facebook/react", "facebook/react", true},
		{"git plus https", "git+https://github.com/lodash/lodash.git", "lodash/lodash", true},
		{"git protocol", "git://github.com/expressjs/express.git", "expressjs/express", true},
		{"ssh", "git@github.com:vuejs/vue.git", "vuejs/vue", true},
		{"shorthand", "github:axios/axios", "axios/axios", true},
		{"bare", "microsoft/typescript", "microsoft/typescript", true},
		{"git suffix", "https://github.com/webpack/webpack.git", "webpack/webpack", true},
		{"trailing slash", "https://github.com/psf/requests/", "psf/requests", true},
		{"fragment", "https://github.com/nodejs/node#readme", "nodejs/node", true},
		{"query", "https://github.com/nodejs/node?tab=readme", "nodejs/node", true},
		{"deep path", "https://github.com/google/guava/tree/master/guava", "google/guava", true},
		{"dotted repo", "https://github.com/socketio/socket.io", "socketio/socket.io", true},
		{"scm connection", "scm:git:git://github.com/google/guava.git", "google/guava", true},
		{"www host", "https://www.github.com/pallets/flask", "pallets/flask", true},
		{"empty", "", "", false},
		{"whitespace", "   ", "", false},
		{"gitlab", "https://gitlab.com/inkscape/inkscape", "", false},
		{"lookalike host", "https://githubusercontent.com/a/b", "", false},
		{"owner only", "https://github.com/sponsors", "", false},
		{"shorthand without repo", "github:axios", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseGitHubURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func FuzzParseGitHubURL(f *testing.F) {
	f.Add("https://github.com/facebook/react")
	f.Add("git@github.com:vuejs/vue.git")
	f.Add("github:a/b")
	f.Add("a/b")
	f.Fuzz(func(t *testing.T, in string) {
		got, ok := ParseGitHubURL(in)
		if !ok {
			assert.Empty(t, got)
			return
		}
		assert.Contains(t, got, "/")
	})
}

func TestParseGitHubFromPOM(t *testing.T) {
	tests := []struct {
		name string
		pom  string
		want string
		ok   bool
	}{
		{
			name: "scm url",
			pom: `<project xmlns="http://maven.apache.org/POM/4.0.0">
				<url>https://guava.dev</url>
				<scm><url>https://github.com/google/guava</url></scm>
			</project>`,
			want: "google/guava",
			ok:   true,
		},
		{
			name: "scm connection",
			pom: `<project><scm>
				<url>https://example.com/source</url>
				<connection>scm:git:https://github.com/square/okhttp.git</connection>
			</scm></project>`,
			want: "square/okhttp",
			ok:   true,
		},
		{
			name: "developer connection",
			pom:  `<project><scm><developerConnection>scm:git:git@github.com:junit-team/junit5.git</developerConnection></scm></project>`,
			want: "junit-team/junit5",
			ok:   true,
		},
		{
			name: "project url",
			pom:  `<project><url>https://github.com/FasterXML/jackson-core</url></project>`,
			want: "FasterXML/jackson-core",
			ok:   true,
		},
		{
			name: "issue management",
			pom: `<project><url>https://commons.apache.org</url>
				<issueManagement><url>https://github.com/apache/commons-lang/issues</url></issueManagement>
			</project>`,
			want: "apache/commons-lang",
			ok:   true,
		},
		{
			name: "no github",
			pom:  `<project><url>https://commons.apache.org</url><scm><url>https://gitbox.apache.org/repos/asf</url></scm></project>`,
		},
		{
			name: "malformed",
			pom:  `<project><scm>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseGitHubFromPOM([]byte(tt.pom))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
