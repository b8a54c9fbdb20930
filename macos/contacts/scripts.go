package contacts

// Scripts emit one row per contact: the name followed by each phone value,
// joined by rowFieldSep. Rows are joined by linefeeds. Every person and every
// phone value is read inside its own try block so one unreadable record does
// not abort the walk.

const rowFieldSep = "|||"

var probeScript = []string{
	`tell application "Contacts"`,
	`return name`,
	`end tell`,
}

var listScript = []string{
	`on run argv`,
	`set maxCount to (item 1 of argv) as integer`,
	`set rows to {}`,
	`tell application "Contacts"`,
	`set ps to people`,
	`set total to count of ps`,
	`if total > maxCount then set total to maxCount`,
	`repeat with i from 1 to total`,
	`try`,
	`set p to item i of ps`,
	`set row to name of p`,
	`set hasPhone to false`,
	`repeat with ph in phones of p`,
	`try`,
	`set v to value of ph`,
	`if v is not missing value and v is not "" then`,
	`set row to row & "|||" & v`,
	`set hasPhone to true`,
	`end if`,
	`end try`,
	`end repeat`,
	`if hasPhone then set end of rows to row`,
	`end try`,
	`end repeat`,
	`end tell`,
	`set oldDelimiters to AppleScript's text item delimiters`,
	`set AppleScript's text item delimiters to linefeed`,
	`set outputText to rows as text`,
	`set AppleScript's text item delimiters to oldDelimiters`,
	`return outputText`,
	`end run`,
}

// findByNameScript relies on AppleScript's default text comparison, which
// ignores case.
var findByNameScript = []string{
	`on run argv`,
	`set query to item 1 of argv`,
	`set maxCount to (item 2 of argv) as integer`,
	`set rows to {}`,
	`tell application "Contacts"`,
	`set ps to people`,
	`set total to count of ps`,
	`if total > maxCount then set total to maxCount`,
	`repeat with i from 1 to total`,
	`try`,
	`set p to item i of ps`,
	`set n to name of p`,
	`if n contains query then`,
	`set row to n`,
	`set hasPhone to false`,
	`repeat with ph in phones of p`,
	`try`,
	`set v to value of ph`,
	`if v is not missing value and v is not "" then`,
	`set row to row & "|||" & v`,
	`set hasPhone to true`,
	`end if`,
	`end try`,
	`end repeat`,
	`if hasPhone then set end of rows to row`,
	`end if`,
	`end try`,
	`end repeat`,
	`end tell`,
	`set oldDelimiters to AppleScript's text item delimiters`,
	`set AppleScript's text item delimiters to linefeed`,
	`set outputText to rows as text`,
	`set AppleScript's text item delimiters to oldDelimiters`,
	`return outputText`,
	`end run`,
}

// findByPhoneScript compares raw stored values against the normalized search
// number in both directions and stops at the first hit.
var findByPhoneScript = []string{
	`on run argv`,
	`set searchNumber to item 1 of argv`,
	`set maxCount to (item 2 of argv) as integer`,
	`set foundName to ""`,
	`tell application "Contacts"`,
	`set ps to people`,
	`set total to count of ps`,
	`if total > maxCount then set total to maxCount`,
	`repeat with i from 1 to total`,
	`try`,
	`set p to item i of ps`,
	`repeat with ph in phones of p`,
	`try`,
	`set v to value of ph`,
	`if v is not missing value and v is not "" then`,
	`if v contains searchNumber or searchNumber contains v then`,
	`set foundName to name of p`,
	`exit repeat`,
	`end if`,
	`end if`,
	`end try`,
	`end repeat`,
	`end try`,
	`if foundName is not "" then exit repeat`,
	`end repeat`,
	`end tell`,
	`return foundName`,
	`end run`,
}
