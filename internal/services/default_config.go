package services

// defaultConfigVersion is bumped whenever the in-code taxonomy below
// changes shape. Year overrides carry their own copy, so bumping this
// never alters a year that already has one.
const defaultConfigVersion = 2

// DefaultSurveyConfig builds the process-wide default taxonomy. The
// result is a fresh value on every call; callers may mutate their copy
// freely.
func DefaultSurveyConfig() *SurveyConfig {
	return &SurveyConfig{
		Version: defaultConfigVersion,
		Categories: []Category{
			{
				Key:         "citizenship",
				Name:        "Citizenship",
				Description: "Committee work and department activities",
				Subsections: []Subsection{
					{
						Key: "committees", Name: "Committee Membership", CarryForward: true,
						Triggers: []Trigger{
							{Key: "comm_unmc", Label: "UNMC standing committee (admissions, GME, curriculum, senate, IRB)",
								InfoText: "Report once per academic year; carries forward to subsequent quarters."},
							{Key: "comm_nebmed", Label: "Nebraska Medicine standing committee (MEC/med staff)"},
							{Key: "comm_minor", Label: "Minor or ad hoc committee"},
							{Key: "comm_other", Label: "Other committee"},
						},
					},
					{
						Key: "department_activities", Name: "Department Activities",
						Triggers: []Trigger{
							{Key: "dept_gr_host", Label: "Grand rounds hosted"},
							{Key: "dept_gr_attend", Label: "Grand rounds attended"},
							{Key: "dept_qa_attend", Label: "QA conference attended"},
							{Key: "dept_jc_host", Label: "Journal club hosted"},
							{Key: "dept_jc_attend", Label: "Journal club attended"},
							{Key: "dept_shadow", Label: "Shadowing session hosted"},
						},
					},
				},
			},
			{
				Key:         "education",
				Name:        "Education",
				Description: "Lectures, board preparation, and mentorship",
				Subsections: []Subsection{
					{
						Key: "lectures", Name: "Lectures",
						Triggers: []Trigger{
							{Key: "lecture_new", Label: "New lecture developed"},
							{Key: "lecture_revised", Label: "Existing lecture revised"},
							{Key: "lecture_existing", Label: "Existing lecture delivered"},
							{Key: "lecture_orals_mm", Label: "Orals/M&M lecture"},
							{Key: "sim_event_resfel", Label: "Simulation session for residents/fellows"},
							{Key: "unmc_grand_rounds_presenter", Label: "UNMC grand rounds presenter"},
							{Key: "com_core_new", Label: "COM core lecture, new"},
							{Key: "com_core_revised", Label: "COM core lecture, revised"},
							{Key: "com_adhoc_new", Label: "COM ad hoc lecture, new"},
							{Key: "com_adhoc_revised", Label: "COM ad hoc lecture, revised"},
						},
					},
					{
						Key: "board_prep", Name: "Board Preparation",
						Triggers: []Trigger{
							{Key: "mock_applied_exam", Label: "Mock applied exam organized"},
							{Key: "osce_new", Label: "New OSCE scenario developed"},
							{Key: "osce_reviewer", Label: "OSCE scenario reviewer"},
							{Key: "mock_oral_examiner", Label: "Mock oral examiner session"},
						},
					},
					{
						Key: "mentorship", Name: "Mentorship",
						Triggers: []Trigger{
							{Key: "mentorship_poster", Label: "Mentored poster"},
							{Key: "mentorship_abstract", Label: "Mentored abstract"},
							{Key: "mentorship_presentation", Label: "Mentored presentation"},
							{Key: "mentorship_publication", Label: "Mentored publication"},
							{Key: "resident_advisor", Label: "Resident advisor meeting"},
						},
					},
					{
						Key: "teaching_roles", Name: "Teaching Roles and Feedback",
						Triggers: []Trigger{
							{Key: "rotation_director", Label: "Rotation director",
								InfoText: "Annual role; report in the quarter the appointment starts."},
							{Key: "mtr_winner", Label: "MyTIP report winner"},
							{Key: "mytip_each", Label: "MyTIP mentions",
								InfoText: "Enter the number of mentions; capped for scoring."},
						},
					},
				},
			},
			{
				Key:         "research",
				Name:        "Research",
				Description: "Grant activity and thesis committees",
				Subsections: []Subsection{
					{
						Key: "grant_review", Name: "Grant Review",
						Triggers: []Trigger{
							{Key: "nih_standing", Label: "NIH standing study section"},
							{Key: "nih_adhoc", Label: "NIH ad hoc review"},
						},
					},
					{
						Key: "grant_awards", Name: "Grant Awards", CarryForward: true,
						Triggers: []Trigger{
							{Key: "grant_100k_plus", Label: "Extramural award >= $100k"},
							{Key: "grant_50_99k", Label: "Extramural award $50-99k"},
							{Key: "grant_10_49k", Label: "Extramural award $10-49k"},
							{Key: "grant_under_10k", Label: "Extramural award < $10k"},
						},
					},
					{
						Key: "grant_submissions", Name: "Grant Submissions",
						Triggers: []Trigger{
							{Key: "grant_sub_scored", Label: "Grant submitted and scored"},
							{Key: "grant_sub_not_scored", Label: "Grant submitted, not scored"},
							{Key: "grant_sub_mentor", Label: "Mentored grant submission"},
						},
					},
					{
						Key: "thesis", Name: "Thesis Committees",
						Triggers: []Trigger{
							{Key: "thesis_member", Label: "Thesis committee member"},
						},
					},
				},
			},
			{
				Key:         "leadership",
				Name:        "Leadership",
				Description: "Education, society, and board leadership",
				Subsections: []Subsection{
					{
						Key: "education_leadership", Name: "Education Leadership",
						Triggers: []Trigger{
							{Key: "course_director_national", Label: "National course director"},
							{Key: "workshop_director", Label: "Workshop director"},
							{Key: "panel_moderator", Label: "Panel moderator"},
							{Key: "unmc_course_director", Label: "UNMC course director"},
							{Key: "unmc_moderator", Label: "UNMC moderator"},
							{Key: "guideline_writing_lead", Label: "Guideline writing group lead"},
						},
					},
					{
						Key: "society", Name: "Society Leadership", CarryForward: true,
						Triggers: []Trigger{
							{Key: "society_bod", Label: "Society board of directors"},
							{Key: "society_rrc", Label: "RRC membership"},
							{Key: "society_committee_chair", Label: "Major society committee chair"},
							{Key: "society_committee_member", Label: "Major society committee member"},
						},
					},
					{
						Key: "board", Name: "Board Leadership",
						Triggers: []Trigger{
							{Key: "boards_editor", Label: "Board exam editor"},
							{Key: "writing_committee_chair", Label: "Writing committee chair"},
							{Key: "board_examiner", Label: "Board examiner"},
							{Key: "question_writer", Label: "Board question writer"},
						},
					},
				},
			},
			{
				Key:         "content_expert",
				Name:        "Content Expert",
				Description: "Speaking, publications, and editorial work",
				Subsections: []Subsection{
					{
						Key: "speaking", Name: "Invited Speaking",
						Triggers: []Trigger{
							{Key: "lecture_national_international", Label: "National/international invited lecture"},
							{Key: "lecture_regional_unmc", Label: "Regional or UNMC invited lecture"},
							{Key: "workshop_national", Label: "National workshop"},
							{Key: "workshop_regional", Label: "Regional workshop"},
							{Key: "visiting_prof_grand_rounds", Label: "Visiting professor grand rounds"},
							{Key: "non_anes_unmc_grand_rounds", Label: "Non-anesthesia UNMC grand rounds"},
						},
					},
					{
						Key: "publications_peer", Name: "Peer-Reviewed Publications",
						Triggers: []Trigger{
							{Key: "pub_peer_first_senior_per_if", Label: "First/senior author, per impact factor point"},
							{Key: "pub_peer_coauth_per_if", Label: "Co-author, per impact factor point"},
						},
					},
					{
						Key: "publications_nonpeer", Name: "Non-Peer-Reviewed Publications",
						Triggers: []Trigger{
							{Key: "pub_nonpeer_first_senior", Label: "First/senior author"},
							{Key: "pub_nonpeer_coauth", Label: "Co-author"},
						},
					},
					{
						Key: "pathways", Name: "Clinical Pathways",
						Triggers: []Trigger{
							{Key: "pathway_new", Label: "New clinical pathway"},
							{Key: "pathway_revised", Label: "Revised clinical pathway"},
						},
					},
					{
						Key: "textbooks", Name: "Textbooks and Chapters",
						Triggers: []Trigger{
							{Key: "textbook_senior_editor_major", Label: "Senior editor, major textbook"},
							{Key: "textbook_senior_editor_minor", Label: "Senior editor, minor textbook"},
							{Key: "textbook_section_editor_major", Label: "Section editor, major textbook"},
							{Key: "textbook_section_editor_minor", Label: "Section editor, minor textbook"},
							{Key: "chapter_first_senior_major", Label: "Chapter first/senior author, major textbook"},
							{Key: "chapter_first_senior_minor", Label: "Chapter first/senior author, minor textbook"},
							{Key: "chapter_coauth_major", Label: "Chapter co-author, major textbook"},
							{Key: "chapter_coauth_minor", Label: "Chapter co-author, minor textbook"},
						},
					},
					{
						Key: "abstracts", Name: "Research Abstracts",
						Triggers: []Trigger{
							{Key: "abstract_first_senior", Label: "First/senior author abstract"},
							{Key: "abstract_2nd_trainee_1st", Label: "Second author with trainee first"},
							{Key: "abstract_coauth", Label: "Co-author abstract"},
						},
					},
					{
						Key: "journal_editorial", Name: "Journal Editorial Roles", CarryForward: true,
						Triggers: []Trigger{
							{Key: "journal_editor_chief", Label: "Editor in chief"},
							{Key: "journal_section_editor", Label: "Section editor"},
							{Key: "journal_special_edition", Label: "Special edition editor"},
							{Key: "journal_editorial_board", Label: "Editorial board member"},
							{Key: "journal_adhoc_reviewer", Label: "Ad hoc reviewer"},
						},
					},
				},
			},
		},
	}
}
