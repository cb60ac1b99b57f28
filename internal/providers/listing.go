package providers

// ListingHeader returns the column titles of the provider listing
func ListingHeader() []string {
	return []string{"Label", "Machine name", "Base URL", "Institution ID", "Filter by OUnit", "Status"}
}

// ListingRow renders p as one listing row
func ListingRow(p Provider) []string {
	ounit := "No"
	if p.OUnitFilter {
		ounit = "Yes"
	}
	status := "Disabled"
	if p.Enabled {
		status = "Enabled"
	}
	return []string{p.Label, p.ID, p.BaseURL, p.HEIID, ounit, status}
}

// Listing renders every registered provider
func (r *Registry) Listing() [][]string {
	list := r.List()
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, ListingRow(p))
	}
	return rows
}
