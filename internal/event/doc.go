// Package event provides the event record scraped from the listing page.
//
// Every record carries all of its fields: data missing from the page is replaced
// with placeholder text rather than left empty. Each record is assigned a
// deterministic SHA1-based ID generated from its title and link, which is the
// key used to remember which events have already been announced.
package event
