// Package pagination tracks the page-by-page browsing session of the active
// category.
//
// SWAPI list endpoints return a "next" URL while more pages exist and null on
// the last page. A Cursor records the page number to request next, whether a
// further page exists and how many items have been collected so far.
//
// Example usage:
//
//	cursor := pagination.NewCursor()
//	page, err := repo.CategoryPage(ctx, category.Character, cursor.Page().Get())
//	if err != nil {
//		return err
//	}
//	cursor.RecordPage(pagination.HasNextCursor(page.NextCursor))
//	cursor.Advance()
//
// The cursor:
//   - Starts (and resets) at page 1 with hasNext true and zero items
//   - Never moves past the last page: Advance is a no-op once hasNext is false
//   - Publishes every field as an observable value
package pagination
