package policy

import "testing"

type ownedThing struct{ userID uint }

func (o ownedThing) GetUserID() uint { return o.userID }

func TestOwns(t *testing.T) {
	cases := []struct {
		name     string
		caller   uint
		resource Ownable
		want     bool
	}{
		{"owner", 7, ownedThing{userID: 7}, true},
		{"stranger", 8, ownedThing{userID: 7}, false},
		{"anonymous caller", 0, ownedThing{userID: 7}, false},
		{"unowned resource", 7, ownedThing{userID: 0}, false},
		{"nil resource", 7, nil, false},
	}
	for _, c := range cases {
		if got := Owns(c.caller, c.resource); got != c.want {
			t.Errorf("%s: Owns(%d) = %v, want %v", c.name, c.caller, got, c.want)
		}
	}
}
