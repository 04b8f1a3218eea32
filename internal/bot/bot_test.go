package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()
	cases := []struct {
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"!баланс", "баланс", nil, true},
		{"  .ШАГИ 8000 60 90 ", "шаги", []string{"8000", "60", "90"}, true},
		{"/help@stepbank_bot", "help", nil, true},
		{"/login мой пароль", "login", []string{"мой", "пароль"}, true},
		{"привет", "", nil, false},
		{"!", "", nil, false},
		{"! купить 2", "купить", []string{"2"}, true},
	}
	for _, tc := range cases {
		cmd, args, ok := p.ParseCommand(tc.text)
		if cmd != tc.cmd || ok != tc.isCmd || !reflect.DeepEqual(args, tc.args) {
			t.Errorf("ParseCommand(%q) = %q %v %v", tc.text, cmd, args, ok)
		}
	}
}
