package commands

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		botName string
		want    Command
		wantOK  bool
	}{
		{
			name:   "plain text is not a command",
			text:   "hello there",
			wantOK: false,
		},
		{
			name:   "bare command",
			text:   "/start",
			want:   Command{Name: "start", Args: []string{}},
			wantOK: true,
		},
		{
			name:   "command with arguments",
			text:   "/imagine a red fox",
			want:   Command{Name: "imagine", Args: []string{"a", "red", "fox"}},
			wantOK: true,
		},
		{
			name:    "bot mention suffix stripped",
			text:    "/temp@ChatterBot 1.5",
			botName: "ChatterBot",
			want:    Command{Name: "temp", Args: []string{"1.5"}},
			wantOK:  true,
		},
		{
			name:    "bot mention is case-insensitive",
			text:    "/temp@chatterbot",
			botName: "ChatterBot",
			want:    Command{Name: "temp", Args: []string{}},
			wantOK:  true,
		},
		{
			name:    "mention of another bot kept in the name",
			text:    "/temp@OtherBot 1.5",
			botName: "ChatterBot",
			want:    Command{Name: "temp@OtherBot", Args: []string{"1.5"}},
			wantOK:  true,
		},
		{
			name:   "command names keep their case",
			text:   "/Temp 1",
			want:   Command{Name: "Temp", Args: []string{"1"}},
			wantOK: true,
		},
		{
			name:   "lone slash is not a command",
			text:   "/",
			wantOK: false,
		},
		{
			name:   "slash followed by space is not a command",
			text:   "/ temp",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, tt.botName)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Name != tt.want.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.want.Name)
			}
			if !reflect.DeepEqual(got.Args, tt.want.Args) {
				t.Errorf("Args = %v, want %v", got.Args, tt.want.Args)
			}
		})
	}
}
