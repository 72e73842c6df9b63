package crawler

import (
	"testing"

	"github.com/torspider/torspider/internal/model"
)

func TestParserTitle(t *testing.T) {
	t.Parallel()

	t.Run("extracts and trims title", func(t *testing.T) {
		t.Parallel()

		p := NewParser("http://abc.onion/")
		result := p.Parse("<html><head><title>  My Site </title></head><body></body></html>")
		if result.Title != "My Site" {
			t.Errorf("Title = %q, want My Site", result.Title)
		}
	})

	t.Run("missing title reports unknown", func(t *testing.T) {
		t.Parallel()

		p := NewParser("http://abc.onion/")
		result := p.Parse("<html><body><p>no title</p></body></html>")
		if result.Title != model.UnknownTitle {
			t.Errorf("Title = %q, want %q", result.Title, model.UnknownTitle)
		}
	})

	t.Run("first title wins", func(t *testing.T) {
		t.Parallel()

		p := NewParser("http://abc.onion/")
		result := p.Parse("<title>First</title><title>Second</title>")
		if result.Title != "First" {
			t.Errorf("Title = %q, want First", result.Title)
		}
	})

	t.Run("empty document reports unknown", func(t *testing.T) {
		t.Parallel()

		p := NewParser("http://abc.onion/")
		result := p.Parse("")
		if result.Title != model.UnknownTitle {
			t.Errorf("Title = %q, want %q", result.Title, model.UnknownTitle)
		}
	})
}

func TestParserLinks(t *testing.T) {
	t.Parallel()

	t.Run("collects onion links with base host for relative hrefs", func(t *testing.T) {
		t.Parallel()

		content := `<html><body>
		<a href="/local.html">local</a>
		<a href="http://other.onion/remote.html">remote</a>
		<a href="http://example.com/clearnet.html">clearnet</a>
		<a href="/local.html">duplicate</a>
		</body></html>`

		p := NewParser("http://abc.onion/index.html")
		result := p.Parse(content)

		want := []string{
			"http://abc.onion/local.html",
			"http://other.onion/remote.html",
		}
		if len(result.Links) != len(want) {
			t.Fatalf("got %d links %v, want %d", len(result.Links), result.Links, len(want))
		}
		for i := range want {
			if result.Links[i] != want[i] {
				t.Errorf("link %d = %q, want %q", i, result.Links[i], want[i])
			}
		}
	})

	t.Run("links inside forms are collected", func(t *testing.T) {
		t.Parallel()

		content := `<form action="post.php"><a href="/inside.html">in form</a></form>`
		p := NewParser("http://abc.onion/")
		result := p.Parse(content)

		if len(result.Links) != 1 || result.Links[0] != "http://abc.onion/inside.html" {
			t.Errorf("links = %v, want [http://abc.onion/inside.html]", result.Links)
		}
	})

	t.Run("malformed html yields what can be recovered", func(t *testing.T) {
		t.Parallel()

		content := `<title>Broken<body><a href="/x.html">x</a><div><span>`
		p := NewParser("http://abc.onion/")
		result := p.Parse(content)

		if result.Title != "Broken" {
			t.Errorf("Title = %q, want Broken", result.Title)
		}
		if len(result.Links) != 1 {
			t.Errorf("links = %v, want one link", result.Links)
		}
	})
}

func TestParserForms(t *testing.T) {
	t.Parallel()

	t.Run("full form", func(t *testing.T) {
		t.Parallel()

		content := `<html><body>
		<form action="search.php" method="post" target="_blank">
			<input type="text" name="q" value="default">
			<input type="password" name="pass">
			<input type="hidden" name="csrf" value="token">
			<input type="submit" value="Go">
			<input type="radio" name="sort" value="asc">
			<input type="radio" name="sort" value="desc">
			<input type="checkbox" name="opts" value="images">
			<input type="number" name="limit">
			<select name="lang">
				<option value="en">English</option>
				<option>de</option>
			</select>
			<textarea name="comment"> hello </textarea>
		</form>
		</body></html>`

		p := NewParser("http://abc.onion/dir/page.html")
		result := p.Parse(content)

		if len(result.Forms) != 1 {
			t.Fatalf("got %d forms, want 1", len(result.Forms))
		}
		form := result.Forms[0]

		if form.Action != "search.php" {
			t.Errorf("Action = %q, want search.php", form.Action)
		}
		if form.Method != "POST" {
			t.Errorf("Method = %q, want POST", form.Method)
		}
		if form.Target != "_blank" {
			t.Errorf("Target = %q, want _blank", form.Target)
		}

		if form.TextFields["q"] != "default" {
			t.Errorf("q = %q, want default", form.TextFields["q"])
		}
		if _, ok := form.TextFields["pass"]; !ok {
			t.Error("password input missing from TextFields")
		}
		if _, ok := form.TextFields["csrf"]; ok {
			t.Error("hidden input should not be collected")
		}

		if got := form.RadioButtons["sort"]; len(got) != 2 {
			t.Errorf("sort radio values = %v, want two", got)
		}
		if got := form.Checkboxes["opts"]; len(got) != 1 || got[0] != "images" {
			t.Errorf("opts checkbox values = %v, want [images]", got)
		}
		if len(form.Numbers) != 1 || form.Numbers[0] != "limit" {
			t.Errorf("Numbers = %v, want [limit]", form.Numbers)
		}
		if got := form.Dropdowns["lang"]; len(got) != 2 || got[0] != "en" || got[1] != "de" {
			t.Errorf("lang options = %v, want [en de]", got)
		}
		if form.TextAreas["comment"] != "hello" {
			t.Errorf("comment = %q, want hello", form.TextAreas["comment"])
		}
	})

	t.Run("nameless inputs ignored", func(t *testing.T) {
		t.Parallel()

		content := `<form action="x.php"><input type="text" value="anon"></form>`
		p := NewParser("http://abc.onion/")
		result := p.Parse(content)

		if len(result.Forms) != 1 {
			t.Fatalf("got %d forms, want 1", len(result.Forms))
		}
		if len(result.Forms[0].TextFields) != 0 {
			t.Errorf("TextFields = %v, want empty", result.Forms[0].TextFields)
		}
	})

	t.Run("typeless input defaults to text", func(t *testing.T) {
		t.Parallel()

		content := `<form><input name="plain" value="v"></form>`
		p := NewParser("http://abc.onion/")
		result := p.Parse(content)

		if result.Forms[0].TextFields["plain"] != "v" {
			t.Errorf("plain = %q, want v", result.Forms[0].TextFields["plain"])
		}
	})
}
