// Package index is a site-agnostic ripper for plain HTML listings.
//
// It fetches one index page, downloads every link matched by a CSS selector
// and an optional extension filter, and rips each page linked by the
// section selector into a subdirectory named after the link text:
//
//	{
//	  "ripper": "index",
//	  "index": {
//	    "url": "https://example.com/archive/",
//	    "directory": "archive",
//	    "selector": "a[href]",
//	    "extensions": ["pdf"],
//	    "section_selector": "ul.years a",
//	    "ignore_existing": false
//	  }
//	}
//
// The ripper is a three-level chain, Site -> Section -> Item, and every
// fetch, descend and save travels up that chain to the controller.
package index
