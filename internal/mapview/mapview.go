// Package mapview turns vehicle positions into map markers.
package mapview

import (
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"fleet-dashboard/internal/model"
)

type Marker struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PopupHTML string  `json:"popup_html"`
}

// View is everything the map needs for one refresh: the markers replacing
// all previous ones and the box to fit the viewport to. Bounds is nil when
// there are no markers.
type View struct {
	Markers []Marker
	Bounds  *orb.Bound
}

func Build(vehicles []model.VehiclePosition) View {
	view := View{Markers: make([]Marker, 0, len(vehicles))}
	points := make(orb.MultiPoint, 0, len(vehicles))

	for _, v := range vehicles {
		if v.Latitude == nil || v.Longitude == nil {
			continue
		}
		view.Markers = append(view.Markers, Marker{
			VehicleID: v.VehicleID,
			Latitude:  *v.Latitude,
			Longitude: *v.Longitude,
			PopupHTML: popup(v),
		})
		points = append(points, orb.Point{*v.Longitude, *v.Latitude})
	}

	if len(points) > 0 {
		bound := points.Bound()
		view.Bounds = &bound
	}
	return view
}

// FeatureCollection renders the view as GeoJSON points with the popup and
// vehicle id as properties and the bounds as bbox.
func (v View) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range v.Markers {
		f := geojson.NewFeature(orb.Point{m.Longitude, m.Latitude})
		f.ID = m.VehicleID
		f.Properties["vehicle_id"] = m.VehicleID
		f.Properties["popup_html"] = m.PopupHTML
		fc.Append(f)
	}
	if v.Bounds != nil {
		fc.BBox = geojson.NewBBox(*v.Bounds)
	}
	return fc
}

func popup(v model.VehiclePosition) string {
	var b strings.Builder
	b.WriteString(`<div style="font-size: 12px;">`)
	fmt.Fprintf(&b, "<strong>%s</strong><br/>", html.EscapeString(v.VehicleName))
	fmt.Fprintf(&b, "%s<br/>", html.EscapeString(model.StringValue(v.VehicleType)))
	if code := model.StringValue(v.JobCode); code != "" {
		fmt.Fprintf(&b, "Job: %s – %s<br/>", html.EscapeString(code), html.EscapeString(model.StringValue(v.JobName)))
	}
	fmt.Fprintf(&b, "Lat: %.5f, Lng: %.5f<br/>", *v.Latitude, *v.Longitude)
	if v.DistanceM != nil {
		fmt.Fprintf(&b, "Distance to job: %.0f m<br/>", *v.DistanceM)
	}
	fmt.Fprintf(&b, "Updated: %s", html.EscapeString(v.TimestampUTC))
	b.WriteString("</div>")
	return b.String()
}
