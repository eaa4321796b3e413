package behavior

import "testing"

func TestInstanceSeesLaterMerges(t *testing.T) {
	def := MustDefine(Info{ID: "button"}, Map{"color": "blue"})
	inst := def.NewInstance()
	def.Merge(Map{"color": "red", "shadow": true})
	if got := inst.Value("color"); got != "red" {
		t.Fatalf("instance missed shared-map update: %v", got)
	}
	if got := inst.Value("shadow"); got != true {
		t.Fatalf("instance missed new capability: %v", got)
	}
}

func TestInstanceLocalsShadowSharedMap(t *testing.T) {
	def := MustDefine(Info{ID: "button"}, Map{"color": "blue"})
	inst := def.NewInstance()
	inst.SetLocal("color", "green")
	if got := inst.Value("color"); got != "green" {
		t.Fatalf("local should shadow: %v", got)
	}
	if got := def.Behavior("color"); got != "blue" {
		t.Fatalf("local write leaked into shared map: %v", got)
	}
	other := def.NewInstance()
	if got := other.Value("color"); got != "blue" {
		t.Fatalf("locals leaked across instances: %v", got)
	}
}

func TestInstanceMissingKey(t *testing.T) {
	inst := MustDefine(Info{ID: "button"}, nil).NewInstance()
	if value, ok := inst.Behavior("absent"); ok || value != nil {
		t.Fatalf("expected miss, got %v %v", value, ok)
	}
}
