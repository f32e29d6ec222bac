package cli

import "testing"

func TestCallerRoleARN(t *testing.T) {
	for _, tc := range []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "assumed role with session",
			in:   "arn:aws:sts::123456789012:assumed-role/deploy/ci-session",
			want: "arn:aws:iam::123456789012:role/deploy",
		},
		{
			name: "assumed role without session",
			in:   "arn:aws:sts::123456789012:assumed-role/deploy",
			want: "arn:aws:iam::123456789012:role/deploy",
		},
		{
			name: "govcloud partition survives",
			in:   "arn:aws-us-gov:sts::123456789012:assumed-role/deploy/s",
			want: "arn:aws-us-gov:iam::123456789012:role/deploy",
		},
		{name: "iam user", in: "arn:aws:iam::123456789012:user/alice", wantErr: true},
		{name: "account root", in: "arn:aws:iam::123456789012:root", wantErr: true},
		{name: "empty role name", in: "arn:aws:sts::123456789012:assumed-role/", wantErr: true},
		{name: "not an arn", in: "websrv-01.internal", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := callerRoleARN(tc.in)

			if tc.wantErr {
				if err == nil {
					t.Fatalf("got %q, want an error", got)
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("role arn = %q, want %q", got, tc.want)
			}
		})
	}
}
