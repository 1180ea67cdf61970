// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/staranto/ec2schedgo/internal/config"
)

// DefaultSpec is the column set status uses when --attrs adds nothing.
const DefaultSpec = "InstanceId:id,tags.Name:name,State.Name:state,InstanceType:type," +
	"PublicIpAddress:ip,LaunchTime:launched"

// tagPrefix selects an EC2 tag value by key, e.g. tags.Name.
const tagPrefix = "tags."

var lengthRe = regexp.MustCompile(`-?\d+`)

// Attr is one column of status output. Key is a gjson path into the JSON form
// of an EC2 instance.
type Attr struct {
	Key string
	// Include is false for attrs that only exist for filtering and sorting.
	Include bool
	// OutputKey is the column title and the key in json/yaml output.
	OutputKey string
	// TransformSpec is a run of transform letters and an optional length.
	TransformSpec string
}

// Transform applies the attr's TransformSpec to a single value. Only string
// values are transformed.
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		return value
	}

	// Timestamps to local time, or to a relative form.
	if strings.ContainsAny(a.TransformSpec, "tTrR") {
		if ts, err := time.Parse(time.RFC3339, result); err == nil {
			if strings.ContainsAny(a.TransformSpec, "rR") {
				result = humanize.Time(ts)
			} else if loc := location(); loc != nil {
				result = ts.In(loc).Format("2006-01-02 15:04:05 MST")
			}
		} else {
			log.Debugf("not a timestamp, skipping time transform: %s", result)
		}
	}

	// The later of l and u wins, so a per-attr case beats a global one.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")
	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Truncation. Negative lengths keep both ends.
	if match := lengthRe.FindAllString(a.TransformSpec, -1); len(match) != 0 {
		l, _ := strconv.Atoi(match[len(match)-1])
		abs := int(math.Abs(float64(l)))
		if len(result) > abs {
			if l < 0 {
				keep := abs/2 - 1
				if keep < 1 {
					keep = 1
				}
				result = result[:keep] + ".." + result[len(result)-keep:]
			} else {
				result = result[:l]
			}
		}
	}

	return result
}

// location returns the zone for the t transform: config timezone, then TZ,
// then the host's local zone.
func location() *time.Location {
	tz, _ := config.GetString("timezone", "")
	if tz == "" {
		tz = os.Getenv("TZ")
	}
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warnf("unknown timezone %q, using local", tz)
		return time.Local
	}
	return loc
}

type AttrList []Attr

// String renders the list back into --attrs form.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Set parses a comma separated list of key[:title[:transform]] specs. A
// leading ! hides the attr, and a key already present is updated in place.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		keyIdx = iota
		outputIdx
		transformIdx
	)

specloop:
	for _, spec := range strings.Split(value, ",") {
		attr := Attr{Include: true}
		fields := strings.Split(spec, ":")

		attr.Key = strings.TrimSpace(fields[keyIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "" {
			return fmt.Errorf("empty attribute key in %q", spec)
		}
		if attr.Key == "*" {
			attr.Include = false
		}

		switch {
		case len(fields) > outputIdx && strings.TrimSpace(fields[outputIdx]) != "":
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		case strings.HasPrefix(attr.Key, tagPrefix):
			attr.OutputKey = strings.TrimPrefix(attr.Key, tagPrefix)
		default:
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		path := gjsonPath(attr.Key)
		for i := range *a {
			if (*a)[i].Key == path || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		attr.Key = path
		*a = append(*a, attr)
	}

	return nil
}

// gjsonPath expands the tags.<Key> shorthand into a gjson query over the
// instance's Tags array.
func gjsonPath(key string) string {
	if !strings.HasPrefix(key, tagPrefix) {
		return key
	}
	tag := strings.TrimPrefix(key, tagPrefix)
	return fmt.Sprintf(`Tags.#(Key==%q).Value`, tag)
}

// SetGlobalTransformSpec prepends the transform of the * attr, if any, to
// every attr in the list.
func (a *AttrList) SetGlobalTransformSpec() {
	spec := ""
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}
	if spec == "" {
		return
	}
	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}
}

func (a *AttrList) Type() string {
	return "list"
}

// Parse builds an AttrList from the default spec followed by user specs.
func Parse(specs ...string) (AttrList, error) {
	var list AttrList
	for _, s := range specs {
		if err := list.Set(s); err != nil {
			return nil, err
		}
	}
	list.SetGlobalTransformSpec()
	return list, nil
}
