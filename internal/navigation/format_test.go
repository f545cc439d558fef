package navigation

import "testing"

func TestFormatDistance(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		meters float64
		want   string
	}{
		{meters: 0, want: "0 m"},
		{meters: 999, want: "999 m"},
		{meters: 999.4, want: "999 m"},
		{meters: 999.6, want: "1.0 km"},
		{meters: 1000, want: "1.0 km"},
		{meters: 1549, want: "1.5 km"},
		{meters: 12340, want: "12.3 km"},
	}

	for _, tc := range testCases {
		if got := FormatDistance(tc.meters); got != tc.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tc.meters, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		seconds float64
		want    string
	}{
		{seconds: 0, want: "< 1 min"},
		{seconds: 59, want: "< 1 min"},
		{seconds: 60, want: "1 min"},
		{seconds: 600, want: "10 min"},
		{seconds: 3600, want: "1h 0min"},
		{seconds: 5400, want: "1h 30min"},
	}

	for _, tc := range testCases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestExternalMapsURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		profile TravelProfile
		want    string
	}{
		{profile: ProfileWalking, want: "https://www.google.com/maps/dir/?api=1&destination=-8.0631,-34.8711&travelmode=walking"},
		{profile: ProfileDriving, want: "https://www.google.com/maps/dir/?api=1&destination=-8.0631,-34.8711&travelmode=driving"},
		{profile: ProfileCycling, want: "https://www.google.com/maps/dir/?api=1&destination=-8.0631,-34.8711&travelmode=bicycling"},
	}

	for _, tc := range testCases {
		if got := ExternalMapsURL(testDest, tc.profile); got != tc.want {
			t.Errorf("ExternalMapsURL(%s) = %q, want %q", tc.profile, got, tc.want)
		}
	}
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in      string
		want    TravelProfile
		wantErr bool
	}{
		{in: "walking", want: ProfileWalking},
		{in: "foot-walking", want: ProfileWalking},
		{in: " Driving ", want: ProfileDriving},
		{in: "cycling-regular", want: ProfileCycling},
		{in: "flying", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := ParseProfile(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseProfile(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseProfile(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if ProfileCycling.ProviderProfile() != "cycling-regular" || ProfileDriving.ProviderProfile() != "driving-car" {
		t.Error("unexpected provider profile names")
	}
}
