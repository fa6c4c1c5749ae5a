package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Chicago")
	if err != nil {
		panic(err)
	}
}

// force the firm's timezone so snapshot timestamps and artifact names
// stay stable no matter which region the host ends up in
func Now() time.Time {
	return time.Now().In(Location)
}
