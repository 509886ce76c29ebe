// Package document provides the editable content tree used by commands.
//
// A Document is an HTML fragment held as golang.org/x/net/html nodes together
// with the active selection. Positions are boundary points: a container node
// and an offset, where the offset counts children for element containers and
// bytes for text containers.
//
// # Ranges
//
// A Range is a pair of boundary points inside one document. Ranges are
// values handed out by the document (CaptureRange) and mutated by commands:
//
//	r, _ := doc.CaptureRange()
//	_ = doc.Update(func() error {
//	    if err := r.CollapseAndClear(); err != nil {
//	        return err
//	    }
//	    if err := r.InsertNode(img); err != nil {
//	        return err
//	    }
//	    return r.CollapseAfter(img)
//	})
//
// # Locking
//
// Every Range primitive reads or writes the tree, so it must run inside
// Document.Update (writes) or Document.View (reads). The document lock is a
// plain mutex; callers must not hold it while waiting for user input.
//
// # Selection markers
//
// Parse understands two marker forms so fixtures can describe a selection
// inline: <!--|--> for a caret, <!--[--> and <!--]--> for an extent.
// RenderSelection writes the same markers back.
package document
