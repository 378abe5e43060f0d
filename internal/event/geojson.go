package event

// FeatureCollection is a GeoJSON feature collection of geocoded events.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON point feature.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Geometry holds GeoJSON coordinates in [longitude, latitude] order.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureProperties are the event fields exposed on a map feature.
type FeatureProperties struct {
	Title     string   `json:"title"`
	Address   string   `json:"address"`
	District  string   `json:"district"`
	Date      string   `json:"date,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Time      string   `json:"time,omitempty"`
	Image     string   `json:"image"`
	Link      string   `json:"link"`
	Category  []string `json:"category"`
}

// NewFeatureCollection builds a collection from the geocoded events accepted
// by keep. A nil keep accepts every geocoded event.
func NewFeatureCollection(events []*Event, keep func(Position) bool) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(events))}
	for _, e := range events {
		if e.Position == nil {
			continue
		}
		if keep != nil && !keep(*e.Position) {
			continue
		}
		categories := e.Categories
		if categories == nil {
			categories = []string{}
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{e.Position.Longitude, e.Position.Latitude},
			},
			Properties: FeatureProperties{
				Title:     e.Title,
				Address:   e.Address,
				District:  e.District,
				Date:      e.Date,
				StartDate: e.StartDate,
				EndDate:   e.EndDate,
				Time:      e.Time,
				Image:     e.Image,
				Link:      e.Link,
				Category:  categories,
			},
		})
	}
	return fc
}

// BoundingBox is a latitude/longitude rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// WarsawBBox covers Warsaw plus roughly ten kilometres around it.
var WarsawBBox = BoundingBox{MinLat: 51.53, MaxLat: 52.45, MinLon: 20.73, MaxLon: 21.36}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p Position) bool {
	return b.MinLat <= p.Latitude && p.Latitude <= b.MaxLat &&
		b.MinLon <= p.Longitude && p.Longitude <= b.MaxLon
}
