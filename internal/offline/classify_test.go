package offline

import (
	"net/http/httptest"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header map[string]string
		want   Class
	}{
		{"stylesheet", "/css/styles.css", nil, ClassStatic},
		{"script", "/js/app.js", nil, ClassStatic},
		{"uppercase image", "/img/LOGO.PNG", nil, ClassStatic},
		{"font", "/fonts/inter.woff2", nil, ClassStatic},
		{"image under data", "/data/logo.svg", nil, ClassStatic},
		{"dataset", "/data/resources.json", nil, ClassData},
		{"json anywhere", "/feed.json?ts=1", nil, ClassData},
		{"api path", "/api/v1/resources", map[string]string{"Accept": "text/html"}, ClassData},
		{"navigate mode", "/resources.html", map[string]string{"Sec-Fetch-Mode": "navigate"}, ClassNavigation},
		{"html accept", "/", map[string]string{"Accept": "text/html,application/xhtml+xml"}, ClassNavigation},
		{"other", "/manifest.webmanifest", nil, ClassOther},
		{"no accept", "/resources.html", nil, ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://hub.test"+tt.target, nil)
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := Classify(r); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.target, got, tt.want)
			}
		})
	}
}
