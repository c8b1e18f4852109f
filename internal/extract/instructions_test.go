package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-enrichment/internal/model"
)

const contactPage = `<html>
<head><title>Contact | The Blue Note</title>
<meta name="twitter:site" content="@BlueNoteNYC"></head>
<body>
<div class="about"><p>  Jazz   club since 1981. </p></div>
<a class="site" href="https://www.bluenotejazz.com/nyc">Website</a>
<footer>
Booking: booking@bluenote.net
Phone: 212-475-8592
</footer>
</body></html>`

func ins(field model.Field, method model.Method, pattern string, priority int) model.ScrapingInstruction {
	return model.ScrapingInstruction{Field: field, Method: method, Pattern: pattern, Priority: priority}
}

func TestExecute_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   model.ScrapingInstruction
		want string
	}{
		{name: "regex capture group", in: ins(model.FieldEmail, model.MethodRegex, `Booking:\s*(\S+@\S+)`, 1), want: "booking@bluenote.net"},
		{name: "regex whole match", in: ins(model.FieldPhone, model.MethodRegex, `\d{3}-\d{3}-\d{4}`, 1), want: "212-475-8592"},
		{name: "css text", in: ins(model.FieldDescription, model.MethodCSSSelector, "div.about p", 1), want: "Jazz club since 1981."},
		{name: "css attr", in: ins(model.FieldWebsite, model.MethodCSSSelector, "a.site@href", 1), want: "https://www.bluenotejazz.com/nyc"},
		{name: "css selector containing at-sign", in: ins(model.FieldWebsite, model.MethodCSSSelector, `a[href*="@"]`, 1), want: ""},
		{name: "meta tag", in: ins(model.FieldTwitterURL, model.MethodMetaTag, "TWITTER:SITE", 1), want: "@BlueNoteNYC"},
		{name: "text search", in: ins(model.FieldPhone, model.MethodTextSearch, "phone:", 1), want: "Phone: 212-475-8592"},
		{name: "xpath text", in: ins(model.FieldDescription, model.MethodXPath, `//div[@class="about"]/p`, 1), want: "Jazz   club since 1981."},
		{name: "xpath attribute", in: ins(model.FieldWebsite, model.MethodXPath, `//a[@class="site"]/@href`, 1), want: "https://www.bluenotejazz.com/nyc"},
		{name: "xpath string function", in: ins(model.FieldDescription, model.MethodXPath, `string(//title)`, 1), want: "Contact | The Blue Note"},
		{name: "no match", in: ins(model.FieldLogoURL, model.MethodCSSSelector, "img.logo@src", 1), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Execute(contactPage, []model.ScrapingInstruction{tt.in})
			require.NoError(t, err)
			if tt.want == "" {
				assert.NotContains(t, got, tt.in.Field)
				return
			}
			assert.Equal(t, tt.want, got[tt.in.Field])
		})
	}
}

func TestExecute_PriorityOrderFirstWins(t *testing.T) {
	t.Parallel()

	got, err := Execute(contactPage, []model.ScrapingInstruction{
		ins(model.FieldPhone, model.MethodTextSearch, "booking", 2),
		ins(model.FieldPhone, model.MethodRegex, `no such thing`, 0),
		ins(model.FieldPhone, model.MethodRegex, `\d{3}-\d{3}-\d{4}`, 1),
		ins(model.FieldPhone, model.MethodTextSearch, "phone", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, map[model.Field]string{model.FieldPhone: "212-475-8592"}, got)
}

func TestExecute_InvalidPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   model.ScrapingInstruction
	}{
		{name: "regex", in: ins(model.FieldEmail, model.MethodRegex, `(?<=mail)\w+`, 1)},
		{name: "css", in: ins(model.FieldEmail, model.MethodCSSSelector, `div[[`, 1)},
		{name: "xpath", in: ins(model.FieldEmail, model.MethodXPath, `//div[`, 1)},
		{name: "method", in: ins(model.FieldEmail, model.Method("jsonpath"), `$.x`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Execute(contactPage, []model.ScrapingInstruction{
				ins(model.FieldPhone, model.MethodRegex, `\d{3}-\d{3}-\d{4}`, 0),
				tt.in,
			})
			assert.Nil(t, got)
			var ee *ExtractionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, model.FieldEmail, ee.Field)
			assert.Equal(t, tt.in.Method, ee.Method)
		})
	}
}

func TestExecute_DoesNotReorderInput(t *testing.T) {
	t.Parallel()

	in := []model.ScrapingInstruction{
		ins(model.FieldEmail, model.MethodTextSearch, "booking", 3),
		ins(model.FieldPhone, model.MethodTextSearch, "phone", 1),
	}
	_, err := Execute(contactPage, in)
	require.NoError(t, err)
	assert.Equal(t, 3, in[0].Priority)
}
