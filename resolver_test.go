package sfs

import "testing"

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{"/", []string{}, false},
		{"/etc", []string{"etc"}, false},
		{"/etc/hosts", []string{"etc", "hosts"}, false},
		{"/etc/hosts/", []string{"etc", "hosts"}, false},
		{"relative", nil, true},
		{"", nil, true},
		{"/a//b", nil, true},
	}

	for _, c := range cases {
		got, err := splitPath(c.path)
		if c.wantErr {
			if err == nil {
				t.Errorf("splitPath(%q): expected error, got %v", c.path, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitPath(%q): unexpected error %v", c.path, err)
			continue
		}
		if len(got) != len(c.want) {
			t.Errorf("splitPath(%q) = %v, want %v", c.path, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("splitPath(%q) = %v, want %v", c.path, got, c.want)
				break
			}
		}
	}
}

func TestSplitPath_NameTooLong(t *testing.T) {
	long := make([]byte, MaxNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := splitPath("/" + string(long))
	if err != ErrNameTooLong {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
}
